package db

import (
	"context"
)

const upsertOutcome = `-- name: UpsertOutcome :exec
insert into outcome (course, term, ok, stage, cn_key, va, http_status, xml_path, error)
values (?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (course) do update set
    term = excluded.term,
    ok = excluded.ok,
    stage = excluded.stage,
    cn_key = excluded.cn_key,
    va = excluded.va,
    http_status = excluded.http_status,
    xml_path = excluded.xml_path,
    error = excluded.error
`

type UpsertOutcomeParams struct {
	Course     string
	Term       string
	Ok         bool
	Stage      string
	CnKey      string
	Va         string
	HttpStatus int64
	XmlPath    string
	Error      string
}

func (q *Queries) UpsertOutcome(ctx context.Context, arg UpsertOutcomeParams) error {
	_, err := q.db.ExecContext(ctx, upsertOutcome,
		arg.Course,
		arg.Term,
		arg.Ok,
		arg.Stage,
		arg.CnKey,
		arg.Va,
		arg.HttpStatus,
		arg.XmlPath,
		arg.Error,
	)
	return err
}

const upsertClassData = `-- name: UpsertClassData :exec
insert into class_data (term, cn_key, body)
values (?, ?, ?)
on conflict (term, cn_key) do update set
    body = excluded.body
`

type UpsertClassDataParams struct {
	Term  string
	CnKey string
	Body  string
}

func (q *Queries) UpsertClassData(ctx context.Context, arg UpsertClassDataParams) error {
	_, err := q.db.ExecContext(ctx, upsertClassData, arg.Term, arg.CnKey, arg.Body)
	return err
}

const getOutcome = `-- name: GetOutcome :one
select course, term, ok, stage, cn_key, va, http_status, xml_path, error from outcome
where course = ?
`

func (q *Queries) GetOutcome(ctx context.Context, course string) (Outcome, error) {
	row := q.db.QueryRowContext(ctx, getOutcome, course)
	var i Outcome
	err := row.Scan(
		&i.Course,
		&i.Term,
		&i.Ok,
		&i.Stage,
		&i.CnKey,
		&i.Va,
		&i.HttpStatus,
		&i.XmlPath,
		&i.Error,
	)
	return i, err
}

const countOutcomes = `-- name: CountOutcomes :one
select
    count(*) as total,
    coalesce(sum(ok), 0) as ok
from outcome
where term = ?
`

type CountOutcomesRow struct {
	Total int64
	Ok    int64
}

func (q *Queries) CountOutcomes(ctx context.Context, term string) (CountOutcomesRow, error) {
	row := q.db.QueryRowContext(ctx, countOutcomes, term)
	var i CountOutcomesRow
	err := row.Scan(&i.Total, &i.Ok)
	return i, err
}

const countClassData = `-- name: CountClassData :one
select count(*) from class_data
where term = ?
`

func (q *Queries) CountClassData(ctx context.Context, term string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countClassData, term)
	var count int64
	err := row.Scan(&count)
	return count, err
}
