package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = "id, job, input_file, dry_run, status, started_at, finished_at, counts_json, error"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		job         string
		inputFile   sql.NullString
		dryRun      sql.NullInt64
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		countsRaw   sql.NullString
		errText     sql.NullString
	)
	if err := scanner.Scan(&id, &job, &inputFile, &dryRun, &status, &startedRaw, &finishedRaw, &countsRaw, &errText); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run := &Run{
		ID:        id,
		Job:       job,
		InputFile: inputFile.String,
		DryRun:    dryRun.Valid && dryRun.Int64 != 0,
		Status:    Status(status),
		StartedAt: parseTime(startedRaw),
		Error:     errText.String,
	}
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	if countsRaw.Valid && countsRaw.String != "" {
		if err := json.Unmarshal([]byte(countsRaw.String), &run.Counts); err != nil {
			return nil, fmt.Errorf("decode counts for run %s: %w", id, err)
		}
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
