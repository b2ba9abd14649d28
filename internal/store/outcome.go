// Package store persists run results: an append-only outcome log that
// doubles as the resume checkpoint, and the raw class-data artifacts.
package store

import (
	"encoding/json"
)

type Stage string

const (
	StageResolve   Stage = "resolve"
	StageClassData Stage = "class-data"
)

// Outcome is the single record written for a course that reached a
// terminal state.
type Outcome struct {
	Course     string `json:"course"`
	Ok         bool   `json:"ok"`
	Stage      Stage  `json:"stage,omitempty"`
	CnKey      string `json:"cnKey,omitempty"`
	Va         string `json:"va,omitempty"`
	HttpStatus int    `json:"httpStatus,omitempty"`
	XmlPath    string `json:"xmlPath,omitempty"`
	Error      string `json:"error,omitempty"`
}

func Succeeded(course, cnKey, va string, status int, xmlPath string) Outcome {
	return Outcome{Course: course, Ok: true, CnKey: cnKey, Va: va, HttpStatus: status, XmlPath: xmlPath}
}

func ResolveFailed(course, reason string) Outcome {
	return Outcome{Course: course, Stage: StageResolve, Error: reason}
}

// ClassDataFailed records a fetched course whose payload is an error.
// xmlPath is empty when no artifact was written.
func ClassDataFailed(course, cnKey, va string, status int, xmlPath, reason string) Outcome {
	return Outcome{
		Course:     course,
		Stage:      StageClassData,
		CnKey:      cnKey,
		Va:         va,
		HttpStatus: status,
		XmlPath:    xmlPath,
		Error:      reason,
	}
}

// identifiedOutcome keeps cnKey, va and httpStatus in the record even when
// they are empty, every fetched course carries them.
type identifiedOutcome struct {
	Course     string `json:"course"`
	Ok         bool   `json:"ok"`
	Stage      Stage  `json:"stage,omitempty"`
	CnKey      string `json:"cnKey"`
	Va         string `json:"va"`
	HttpStatus int    `json:"httpStatus"`
	XmlPath    string `json:"xmlPath,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Stage == StageResolve {
		type plain Outcome
		return json.Marshal(plain(o))
	}
	return json.Marshal(identifiedOutcome(o))
}
