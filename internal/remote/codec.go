package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/classbook/internal/record"
)

// decodeRows splits a list payload into per-row objects. Sheet-backed
// endpoints return numbers for phone numbers, ids and passwords, so every
// top-level number or bool is turned into its string form before the row
// is decoded into a record.
func decodeRows(data json.RawMessage) ([]map[string]json.RawMessage, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		stringifyScalars(row)
	}
	return rows, nil
}

func stringifyScalars(row map[string]json.RawMessage) {
	for k, v := range row {
		trimmed := bytes.TrimSpace(v)
		if len(trimmed) == 0 {
			continue
		}
		switch c := trimmed[0]; {
		case c == 't' || c == 'f':
			row[k] = json.RawMessage(strconv.Quote(string(trimmed)))
		case c == '-' || (c >= '0' && c <= '9'):
			row[k] = json.RawMessage(strconv.Quote(string(trimmed)))
		}
	}
}

func rowInto(row map[string]json.RawMessage, v any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// rowString returns the string value of key, or "".
func rowString(row map[string]json.RawMessage, key string) string {
	raw, ok := row[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// firstString returns the first non-empty string among keys.
func firstString(row map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := rowString(row, k); s != "" {
			return s
		}
	}
	return ""
}

// embeddedJSON decodes a field that may hold either a JSON value or a
// string containing JSON.
func embeddedJSON(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), v)
	}
	return json.Unmarshal(trimmed, v)
}

// transcriptKeys are the row fields a transcript may arrive in, in order
// of preference.
var transcriptKeys = []string{"metadata", "transcript_json", "transcript"}

func decodeStudent(row map[string]json.RawMessage) (record.Student, error) {
	var transcriptRaw json.RawMessage
	for _, k := range transcriptKeys {
		raw, ok := row[k]
		delete(row, k)
		if !ok || transcriptRaw != nil {
			continue
		}
		t := bytes.TrimSpace(raw)
		if len(t) == 0 || bytes.Equal(t, []byte(`""`)) || bytes.Equal(t, []byte("null")) {
			continue
		}
		transcriptRaw = raw
	}

	var s record.Student
	if err := rowInto(row, &s); err != nil {
		return record.Student{}, err
	}
	s.DateOfBirth = firstString(row, "birthday", "dateOfBirth")
	s.ParentPhone = firstString(row, "parentPhone", "fatherPhone", "motherPhone")

	if transcriptRaw != nil {
		var t record.Transcript
		if err := embeddedJSON(transcriptRaw, &t); err != nil {
			return record.Student{}, fmt.Errorf("student %s: transcript: %w", s.ID, err)
		}
		s.Transcript = t
	}
	return s, nil
}

// encodeStudent lays a student out as the endpoint stores it: birthday
// instead of dateOfBirth and the transcript serialized into metadata.
func encodeStudent(s record.Student) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	transcript := s.Transcript
	if transcript == nil {
		transcript = record.Transcript{}
	}
	meta, err := json.Marshal(transcript)
	if err != nil {
		return nil, err
	}
	delete(payload, "transcript")
	payload["birthday"] = s.DateOfBirth
	payload["metadata"] = string(meta)
	return payload, nil
}

// attendanceRow is the endpoint's storage shape: one row per student per day.
type attendanceRow struct {
	Date      string                  `json:"date"`
	StudentID string                  `json:"studentId"`
	Status    record.AttendanceStatus `json:"status"`
	Note      string                  `json:"note"`
}

// groupAttendance folds flat rows into days. Timestamps are cut at "T";
// rows without a date are dropped. Days keep the order their first row
// appeared in.
func groupAttendance(rows []attendanceRow) []record.AttendanceDay {
	var days []record.AttendanceDay
	index := make(map[string]int)
	for _, r := range rows {
		date, _, _ := strings.Cut(r.Date, "T")
		if date == "" {
			continue
		}
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, record.AttendanceDay{Date: date})
		}
		days[i].Records = append(days[i].Records, record.AttendanceRecord{
			StudentID: r.StudentID,
			Status:    r.Status,
			Note:      r.Note,
		})
	}
	return days
}

func flattenAttendance(day record.AttendanceDay) []attendanceRow {
	rows := make([]attendanceRow, 0, len(day.Records))
	for _, r := range day.Records {
		rows = append(rows, attendanceRow{
			Date:      day.Date,
			StudentID: r.StudentID,
			Status:    r.Status,
			Note:      r.Note,
		})
	}
	return rows
}

// decodeClassConfig picks the newest class row (the last one) and maps the
// endpoint's column names. It reports false when there is no usable row.
func decodeClassConfig(data json.RawMessage) (record.ClassConfig, bool, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return record.ClassConfig{}, false, err
	}
	if len(rows) == 0 {
		return record.ClassConfig{}, false, nil
	}
	row := rows[len(rows)-1]
	stringifyScalars(row)

	cfg := record.ClassConfig{
		ClassName:        rowString(row, "className"),
		TeacherName:      rowString(row, "teacherName"),
		SchoolYear:       firstString(row, "year", "schoolYear"),
		SchoolName:       firstString(row, "schoolName", "description"),
		Location:         rowString(row, "location"),
		TeacherSignature: rowString(row, "teacherSignature"),
	}
	if cfg.ClassName == "" {
		return record.ClassConfig{}, false, nil
	}
	if err := embeddedJSON(row["awardTitles"], &cfg.AwardTitles); err != nil {
		return record.ClassConfig{}, false, fmt.Errorf("awardTitles: %w", err)
	}
	if err := embeddedJSON(row["scoreComments"], &cfg.ScoreComments); err != nil {
		return record.ClassConfig{}, false, fmt.Errorf("scoreComments: %w", err)
	}
	return cfg, true, nil
}

func encodeClassConfig(cfg record.ClassConfig) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	titles := cfg.AwardTitles
	if titles == nil {
		titles = []string{}
	}
	comments := cfg.ScoreComments
	if comments == nil {
		comments = []record.ScoreComment{}
	}
	titlesJSON, err := json.Marshal(titles)
	if err != nil {
		return nil, err
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return nil, err
	}
	payload["year"] = cfg.SchoolYear
	payload["awardTitles"] = string(titlesJSON)
	payload["scoreComments"] = string(commentsJSON)
	return payload, nil
}
