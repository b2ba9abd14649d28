package main

import (
	"mytimetable-scraper/cmd/mtscrape/commands"
)

func main() {
	commands.Execute()
}
