package repository

import (
	"context"
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type ProcessingStatisticsEntity struct {
	ID               int64     `db:"id"                 gorm:"primaryKey;autoIncrement;column:id"`
	RecordDate       time.Time `db:"record_date"        gorm:"column:record_date;not null"`
	RecordHour       int       `db:"record_hour"        gorm:"column:record_hour;not null"`
	DatasetType      string    `db:"dataset_type"       gorm:"column:dataset_type;not null"`
	RecordCount      int       `db:"record_count"       gorm:"column:record_count;not null"`
	ProcessingTimeMs int64     `db:"processing_time_ms" gorm:"column:processing_time_ms;not null"`
	CreatedAt        time.Time `db:"created_at"         gorm:"column:created_at;autoCreateTime"`
}

func (ProcessingStatisticsEntity) TableName() string { return "processing_statistics" }

type StatisticsRepository struct {
	*pg.DB
}

func NewStatisticsRepository(db *pg.DB) *StatisticsRepository {
	return &StatisticsRepository{db}
}

// InsertStatistics appends one accounting row. Each run attempt produces its
// own row; the accountant guarantees at most one call per attempt.
func (r *StatisticsRepository) InsertStatistics(ctx context.Context, stats *model.ProcessingStatistics) error {
	return r.Write(ctx).Create(&ProcessingStatisticsEntity{
		RecordDate:       stats.RecordDate,
		RecordHour:       stats.RecordHour,
		DatasetType:      string(stats.DatasetType),
		RecordCount:      stats.RecordCount,
		ProcessingTimeMs: stats.ProcessingTime.Milliseconds(),
	}).Error
}
