package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/record"
)

// DefaultStudents returns the sample student seeded on first run. The
// default parent account links to it.
func DefaultStudents() []record.Student {
	return []record.Student{
		{
			ID:           "HS001",
			FirstName:    "An",
			LastName:     "Nguyễn Văn",
			FullName:     "Nguyễn Văn An",
			Gender:       "Nam",
			DateOfBirth:  "2010-05-12",
			PlaceOfBirth: "TP.HCM",
			Address:      "123 Lê Lợi, Quận 1, TP.HCM",
			NationalID:   "079201000001",
			Ethnicity:    "Kinh",
			Status:       record.StatusStudying,
			FatherName:   "Nguyễn Văn Bình",
			FatherPhone:  "0901234567",
			MotherName:   "Lê Thị Mai",
			MotherPhone:  "0909888777",
			Transcript: record.Transcript{
				record.TermHK1: {
					Scores: map[string]any{
						"Toán": 8.5, "Ngữ văn": 8.0, "Ngoại ngữ": 9.0, "GDCD": 9.0,
						"KHTN": 8.5, "LS-ĐL": 8.0, "Công nghệ": 9.0, "Tin học": 9.5,
						"GDTC": "Đ", "Nghệ thuật": "Đ", "HĐTN": "Đ", "GDĐP": "Đ",
					},
					AcademicRank: "Tốt",
					Conduct:      "Tốt",
				},
			},
		},
	}
}

// DefaultClassConfig returns the class configuration seeded on first run.
func DefaultClassConfig() record.ClassConfig {
	return record.ClassConfig{
		ClassName:   "9A1",
		TeacherName: "Bùi Sỹ Kiên",
		SchoolYear:  "2023-2024",
		SchoolName:  "TRƯỜNG THCS TÂN LẬP",
		Location:    "Đồng Phú",
		AwardTitles: []string{"Học sinh Xuất sắc", "Học sinh Giỏi", "Khen thưởng thành tích đột xuất"},
		ScoreComments: []record.ScoreComment{
			{ID: "hk1_1", Rank: "Tốt", Term: record.TermHK1, Content: "Chăm ngoan, học giỏi, có ý thức xây dựng bài. Tiếp tục phát huy nhé!"},
			{ID: "hk1_2", Rank: "Khá", Term: record.TermHK1, Content: "Có cố gắng trong học tập, ngoan hiền. Cần chủ động phát biểu hơn."},
			{ID: "hk1_3", Rank: "Đạt", Term: record.TermHK1, Content: "Sức học trung bình, cần chăm chỉ làm bài tập về nhà hơn."},
			{ID: "hk1_4", Rank: "Chưa đạt", Term: record.TermHK1, Content: "Học lực còn yếu, cần cố gắng rất nhiều. Gia đình cần quan tâm đôn đốc."},
			{ID: "hk2_1", Rank: "Tốt", Term: record.TermHK2, Content: "Hoàn thành xuất sắc nhiệm vụ học kỳ 2. Là tấm gương sáng cho cả lớp."},
			{ID: "hk2_2", Rank: "Khá", Term: record.TermHK2, Content: "Có tiến bộ rõ rệt so với học kỳ 1. Cần duy trì phong độ."},
			{ID: "hk2_3", Rank: "Đạt", Term: record.TermHK2, Content: "Đã có cố gắng nhưng kết quả chưa cao. Cần ôn tập kỹ kiến thức hè."},
			{ID: "cn_1", Rank: "Tốt", Term: record.TermCN, Content: "Đạt danh hiệu Học sinh Giỏi cả năm. Chúc mừng em!"},
			{ID: "cn_2", Rank: "Khá", Term: record.TermCN, Content: "Hoàn thành tốt năm học. Cần nỗ lực hơn để đạt kết quả cao hơn năm sau."},
			{ID: "cn_3", Rank: "Đạt", Term: record.TermCN, Content: "Được lên lớp. Cần rèn luyện thêm trong hè để chuẩn bị cho năm học mới."},
			{ID: "cn_4", Rank: "Chưa đạt", Term: record.TermCN, Content: "Kết quả năm học chưa đạt yêu cầu. Cần thi lại hoặc rèn luyện thêm trong hè."},
		},
	}
}

// Bootstrap seeds built-in defaults. It runs the full seed when the
// initialization flag is missing or the accounts entry is missing or empty;
// the accounts are always rewritten then, while students, class config and
// endpoint are only filled when absent. An initialized store only gets a
// missing endpoint entry filled in.
//
// Returns true when the full seed ran. Safe to call on every start.
func (s *Store) Bootstrap(ctx context.Context) (bool, error) {
	initialized, err := s.Has(ctx, KeyInitialized)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	accountsOK, err := s.accountsPresent(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}

	if initialized && accountsOK {
		if err := s.seedIfMissing(ctx, KeyEndpoint, s.defaultEndpoint); err != nil {
			return false, fmt.Errorf("bootstrap: %w", err)
		}
		return false, nil
	}

	s.logger.Info("seeding local store",
		"initialized", initialized,
		"accounts_present", accountsOK)

	if err := Set(ctx, s, KeyAccounts, account.Defaults()); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if err := s.seedIfMissing(ctx, KeyStudents, DefaultStudents()); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if err := s.seedIfMissing(ctx, KeyClassConfig, DefaultClassConfig()); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if err := s.seedIfMissing(ctx, KeyEndpoint, s.defaultEndpoint); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if err := Set(ctx, s, KeyInitialized, true); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	return true, nil
}

// accountsPresent reports whether the accounts row exists and holds more
// than an empty value.
func (s *Store) accountsPresent(ctx context.Context) (bool, error) {
	raw, ok, err := s.getRaw(ctx, KeyAccounts)
	if err != nil || !ok {
		return false, err
	}
	switch strings.TrimSpace(raw) {
	case "", "[]", "null":
		return false, nil
	}
	return true, nil
}

func (s *Store) seedIfMissing(ctx context.Context, key string, v any) error {
	ok, err := s.Has(ctx, key)
	if err != nil || ok {
		return err
	}
	return Set(ctx, s, key, v)
}
