package account

import "github.com/roach88/classbook/internal/record"

// DefaultPassword is the password of every built-in account.
const DefaultPassword = "123"

var defaults = []record.Account{
	{
		ID:       "admin_1",
		Username: "admin",
		Password: DefaultPassword,
		FullName: "Bùi Sỹ Kiên (GVCN)",
		Role:     record.RoleHomeroom,
		Status:   record.AccountActive,
	},
	{
		ID:         "teacher_1",
		Username:   "gv_bomon",
		Password:   DefaultPassword,
		FullName:   "GV Bộ Môn (Mẫu)",
		Role:       record.RoleSubject,
		Department: "Khoa học Tự nhiên",
		Status:     record.AccountActive,
	},
	{
		ID:        "parent_1",
		Username:  "phuhuynh",
		Password:  DefaultPassword,
		FullName:  "Phụ huynh (Mẫu)",
		Role:      record.RoleParent,
		StudentID: "HS001",
		Status:    record.AccountActive,
	},
}

// Defaults returns a fresh copy of the built-in privileged accounts: one
// homeroom administrator, one subject teacher and one parent.
func Defaults() []record.Account {
	out := make([]record.Account, len(defaults))
	copy(out, defaults)
	return out
}
