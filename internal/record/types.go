package record

import (
	"sort"
	"strings"
)

// StudentStatus is the enrolment state of a student.
type StudentStatus string

const (
	StatusStudying   StudentStatus = "studying"
	StatusDroppedOut StudentStatus = "dropped_out"
	StatusTransfer   StudentStatus = "transfer"
)

// Term keys of a transcript.
const (
	TermHK1 = "HK1"
	TermHK2 = "HK2"
	TermCN  = "CN"
)

// TermData holds one term's scores and the fields derived from them.
// Scores values are numbers for graded subjects and strings ("Đ", "CĐ")
// for pass/fail subjects.
type TermData struct {
	Scores        map[string]any `json:"scores" yaml:"scores"`
	AcademicRank  string         `json:"academicRank,omitempty" yaml:"academicRank,omitempty"`
	Conduct       string         `json:"conduct,omitempty" yaml:"conduct,omitempty"`
	Award         string         `json:"award,omitempty" yaml:"award,omitempty"`
	AcademicNotes string         `json:"academicNotes,omitempty" yaml:"academicNotes,omitempty"`
}

// Transcript maps a term key (HK1, HK2, CN) to that term's data.
type Transcript map[string]TermData

// Student is a class member. ID is globally unique; when a national id is
// known the id is derived from it (see StudentID).
type Student struct {
	ID           string        `json:"id" yaml:"id" validate:"required"`
	FullName     string        `json:"fullName" yaml:"fullName" validate:"required"`
	FirstName    string        `json:"firstName" yaml:"firstName"`
	LastName     string        `json:"lastName" yaml:"lastName"`
	Avatar       string        `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Gender       string        `json:"gender" yaml:"gender"`
	DateOfBirth  string        `json:"dateOfBirth" yaml:"dateOfBirth"`
	PlaceOfBirth string        `json:"placeOfBirth,omitempty" yaml:"placeOfBirth,omitempty"`
	Address      string        `json:"address" yaml:"address"`
	Status       StudentStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=studying dropped_out transfer"`
	NationalID   string        `json:"cccd,omitempty" yaml:"cccd,omitempty"`
	Ethnicity    string        `json:"ethnicity,omitempty" yaml:"ethnicity,omitempty"`

	ParentName  string `json:"parentName,omitempty" yaml:"parentName,omitempty"`
	ParentPhone string `json:"parentPhone,omitempty" yaml:"parentPhone,omitempty"`

	FatherName        string `json:"fatherName,omitempty" yaml:"fatherName,omitempty"`
	FatherYearOfBirth string `json:"fatherYearOfBirth,omitempty" yaml:"fatherYearOfBirth,omitempty"`
	FatherPhone       string `json:"fatherPhone,omitempty" yaml:"fatherPhone,omitempty"`
	FatherJob         string `json:"fatherJob,omitempty" yaml:"fatherJob,omitempty"`
	MotherName        string `json:"motherName,omitempty" yaml:"motherName,omitempty"`
	MotherYearOfBirth string `json:"motherYearOfBirth,omitempty" yaml:"motherYearOfBirth,omitempty"`
	MotherPhone       string `json:"motherPhone,omitempty" yaml:"motherPhone,omitempty"`
	MotherJob         string `json:"motherJob,omitempty" yaml:"motherJob,omitempty"`
	GuardianName      string `json:"guardianName,omitempty" yaml:"guardianName,omitempty"`
	GuardianPhone     string `json:"guardianPhone,omitempty" yaml:"guardianPhone,omitempty"`
	GuardianJob       string `json:"guardianJob,omitempty" yaml:"guardianJob,omitempty"`

	// Legacy flat fields, kept so older records survive a round trip.
	AcademicRank  string         `json:"academicRank,omitempty" yaml:"academicRank,omitempty"`
	Conduct       string         `json:"conduct,omitempty" yaml:"conduct,omitempty"`
	Award         string         `json:"award,omitempty" yaml:"award,omitempty"`
	Notes         string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	AcademicNotes string         `json:"academicNotes,omitempty" yaml:"academicNotes,omitempty"`
	ConductNotes  string         `json:"conductNotes,omitempty" yaml:"conductNotes,omitempty"`
	SubjectScores map[string]any `json:"subjectScores,omitempty" yaml:"subjectScores,omitempty"`

	Transcript Transcript `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

// SplitName fills FirstName and LastName from FullName when either is
// missing. The last word of the full name is the first name.
func (s Student) SplitName() Student {
	if s.FirstName != "" && s.LastName != "" {
		return s
	}
	parts := strings.Fields(s.FullName)
	if len(parts) == 0 {
		s.FirstName, s.LastName = "", ""
		return s
	}
	s.FirstName = parts[len(parts)-1]
	s.LastName = strings.Join(parts[:len(parts)-1], " ")
	return s
}

// AttendanceStatus is a student's mark for one day.
type AttendanceStatus string

const (
	Present   AttendanceStatus = "present"
	Excused   AttendanceStatus = "excused"
	Unexcused AttendanceStatus = "unexcused"
)

// AttendanceRecord is one student's mark inside an AttendanceDay.
type AttendanceRecord struct {
	StudentID string           `json:"studentId" yaml:"studentId" validate:"required"`
	Status    AttendanceStatus `json:"status" yaml:"status" validate:"required,oneof=present excused unexcused"`
	Note      string           `json:"note,omitempty" yaml:"note,omitempty"`
}

// AttendanceDay is keyed by Date (YYYY-MM-DD); there is at most one per date.
type AttendanceDay struct {
	Date    string             `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Records []AttendanceRecord `json:"records" yaml:"records" validate:"dive"`
	Note    string             `json:"note,omitempty" yaml:"note,omitempty"`
}

// Role is the authorization role of an account.
type Role string

const (
	RoleHomeroom Role = "HOMEROOM"
	RoleSubject  Role = "SUBJECT"
	RoleParent   Role = "PARENT"
	RoleStudent  Role = "STUDENT"
)

// AccountStatus gates login: pending accounts await approval.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountPending AccountStatus = "pending"
)

// Account is an authentication identity. The trimmed, lower-cased username
// is its identity key, not ID.
type Account struct {
	ID         string        `json:"id" yaml:"id" validate:"required"`
	Username   string        `json:"username" yaml:"username" validate:"required"`
	Password   string        `json:"password,omitempty" yaml:"password,omitempty"`
	FullName   string        `json:"fullName" yaml:"fullName"`
	Role       Role          `json:"role" yaml:"role" validate:"omitempty,oneof=HOMEROOM SUBJECT PARENT STUDENT"`
	StudentID  string        `json:"studentId,omitempty" yaml:"studentId,omitempty"`
	Department string        `json:"department,omitempty" yaml:"department,omitempty"`
	Avatar     string        `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Status     AccountStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=active pending"`
}

// Session returns the account as it is kept for the signed-in user: no
// password, and an explicit status.
func (a Account) Session() Account {
	a.Password = ""
	if a.Status == "" {
		a.Status = AccountActive
	}
	return a
}

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyUrgent  NotificationType = "urgent"
)

// Notification is an append-mostly class announcement or message.
type Notification struct {
	ID         string           `json:"id" yaml:"id" validate:"required"`
	Title      string           `json:"title" yaml:"title" validate:"required"`
	Content    string           `json:"content" yaml:"content"`
	Date       string           `json:"date" yaml:"date"`
	Type       NotificationType `json:"type" yaml:"type" validate:"oneof=info warning urgent"`
	Category   string           `json:"category,omitempty" yaml:"category,omitempty" validate:"omitempty,oneof=class personal message"`
	SenderName string           `json:"senderName,omitempty" yaml:"senderName,omitempty"`
}

// ReviewType is the period a review covers.
type ReviewType string

const (
	ReviewWeekly  ReviewType = "WEEKLY"
	ReviewMonthly ReviewType = "MONTHLY"
	ReviewTerm    ReviewType = "TERM"
)

// Review is a periodic teacher comment on one student.
type Review struct {
	ID         string     `json:"id" yaml:"id" validate:"required"`
	StudentID  string     `json:"studentId" yaml:"studentId" validate:"required"`
	Type       ReviewType `json:"type" yaml:"type" validate:"oneof=WEEKLY MONTHLY TERM"`
	PeriodName string     `json:"periodName" yaml:"periodName"`
	Content    string     `json:"content" yaml:"content"`
	Date       string     `json:"date" yaml:"date"`
}

// SamePeriod reports whether r and o review the same student for the same
// period. At most one review exists per period.
func (r Review) SamePeriod(o Review) bool {
	return r.StudentID == o.StudentID && r.Type == o.Type && r.PeriodName == o.PeriodName
}

// ScoreComment is a comment template offered for a rank in a term.
type ScoreComment struct {
	ID      string   `json:"id" yaml:"id"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Rank    string   `json:"rank,omitempty" yaml:"rank,omitempty"`
	Content string   `json:"content" yaml:"content"`
	Term    string   `json:"term,omitempty" yaml:"term,omitempty"`
}

// ClassConfig is the singleton class configuration.
type ClassConfig struct {
	ClassName        string         `json:"className" yaml:"className"`
	TeacherName      string         `json:"teacherName" yaml:"teacherName"`
	SchoolYear       string         `json:"schoolYear" yaml:"schoolYear"`
	SchoolName       string         `json:"schoolName,omitempty" yaml:"schoolName,omitempty"`
	Location         string         `json:"location,omitempty" yaml:"location,omitempty"`
	AwardTitles      []string       `json:"awardTitles,omitempty" yaml:"awardTitles,omitempty"`
	ScoreComments    []ScoreComment `json:"scoreComments,omitempty" yaml:"scoreComments,omitempty"`
	TeacherSignature string         `json:"teacherSignature,omitempty" yaml:"teacherSignature,omitempty"`
}

// Overlay returns c with every non-empty field of o copied over it.
func (c ClassConfig) Overlay(o ClassConfig) ClassConfig {
	if o.ClassName != "" {
		c.ClassName = o.ClassName
	}
	if o.TeacherName != "" {
		c.TeacherName = o.TeacherName
	}
	if o.SchoolYear != "" {
		c.SchoolYear = o.SchoolYear
	}
	if o.SchoolName != "" {
		c.SchoolName = o.SchoolName
	}
	if o.Location != "" {
		c.Location = o.Location
	}
	if o.AwardTitles != nil {
		c.AwardTitles = o.AwardTitles
	}
	if o.ScoreComments != nil {
		c.ScoreComments = o.ScoreComments
	}
	if o.TeacherSignature != "" {
		c.TeacherSignature = o.TeacherSignature
	}
	return c
}

// SortNotifications orders notifications newest first. Dates are ISO
// strings, so lexical order is chronological.
func SortNotifications(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].Date > ns[j].Date })
}

// SortReviews orders reviews newest first.
func SortReviews(rs []Review) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Date > rs[j].Date })
}
