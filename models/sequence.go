package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Configuration is a key-value row. Sequence patterns live in
// "<doc>_number_sequence", counters in "<doc>_counter"; other settings
// (estimate_validity_days) share the table.
type Configuration struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	sequencePatternSuffix = "_number_sequence"
	sequenceCounterSuffix = "_counter"

	estimateValidityDaysKey     = "estimate_validity_days"
	defaultEstimateValidityDays = 30
)

func configRedisKey(key string) string {
	return "configuration:" + key
}

// GetConfigurationValue reads a setting, redis first, then db.
// Returns ("", false, nil) when the key does not exist.
func GetConfigurationValue(ctx context.Context, key string) (string, bool, error) {
	value, exists, err := config.GetRedisValue(configRedisKey(key))
	if err != nil {
		return "", false, err
	}
	if exists {
		return value, true, nil
	}

	db := config.GetDB()
	var row Configuration
	err = db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if err := config.SetRedisValue(configRedisKey(key), row.Value, 0); err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// SetConfigurationValue upserts a setting and drops the cached copy.
func SetConfigurationValue(ctx context.Context, key string, value string) (*Configuration, error) {
	db := config.GetDB()
	row := Configuration{Key: key, Value: value}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(configRedisKey(key)); err != nil {
		return nil, err
	}
	return &row, nil
}

// estimateValidityDays reads the configured validity window, falling
// back to 30 days when unset or unparsable.
func estimateValidityDays(ctx context.Context) int {
	value, exists, err := GetConfigurationValue(ctx, estimateValidityDaysKey)
	if err != nil || !exists {
		return defaultEstimateValidityDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || days <= 0 {
		return defaultEstimateValidityDays
	}
	return days
}

// placeholder grammar: {year} {month} {day} {counter}, each optionally
// zero-padded as {counter:04d}
var sequencePlaceholderRe = regexp.MustCompile(`\{(year|month|day|counter)(?::0(\d+)d)?\}`)

// FormatDocumentNumber renders a sequence pattern for the given counter
// value at the given time. A pattern with no usable {counter}
// placeholder falls back to the bare zero-padded counter.
func FormatDocumentNumber(pattern string, counter int64, now time.Time) string {
	if !strings.Contains(pattern, "{counter") {
		return fmt.Sprintf("%04d", counter)
	}

	out := sequencePlaceholderRe.ReplaceAllStringFunc(pattern, func(match string) string {
		parts := sequencePlaceholderRe.FindStringSubmatch(match)
		var n int64
		switch parts[1] {
		case "year":
			n = int64(now.Year())
		case "month":
			n = int64(now.Month())
		case "day":
			n = int64(now.Day())
		case "counter":
			n = counter
		}
		if parts[2] != "" {
			width, _ := strconv.Atoi(parts[2])
			return fmt.Sprintf("%0*d", width, n)
		}
		return fmt.Sprint(n)
	})

	// leftover braces mean the pattern was malformed
	if strings.ContainsAny(out, "{}") {
		return fmt.Sprintf("%04d", counter)
	}
	return out
}

// GenerateNextNumber issues the next document number for a sequence key.
// The counter row is locked FOR UPDATE so concurrent callers serialize;
// a redis lock around the transaction reduces lock contention across
// instances when redis is configured. A failed downstream save leaves an
// unused number behind, never a duplicate.
func GenerateNextNumber(ctx context.Context, docType DocumentType) (string, error) {
	release, err := utils.ObtainLock(ctx, "seq", string(docType), "models", "GenerateNextNumber")
	if err != nil {
		return "", err
	}
	defer release()

	patternKey := string(docType) + sequencePatternSuffix
	counterKey := string(docType) + sequenceCounterSuffix

	pattern, exists, err := GetConfigurationValue(ctx, patternKey)
	if err != nil {
		return "", err
	}
	if !exists || strings.TrimSpace(pattern) == "" {
		return "", &utils.ConfigurationError{Key: patternKey, Message: "number sequence is not configured"}
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	var counterRow Configuration
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("`key` = ?", counterKey).First(&counterRow).Error; err != nil {
		return "", &utils.ConfigurationError{Key: counterKey, Message: "counter is not configured"}
	}

	counter, err := strconv.ParseInt(strings.TrimSpace(counterRow.Value), 10, 64)
	if err != nil {
		return "", &utils.ConfigurationError{Key: counterKey, Message: "counter value is not a number"}
	}
	counter++

	if err := tx.Model(&Configuration{}).Where("`key` = ?", counterKey).
		Update("value", fmt.Sprint(counter)).Error; err != nil {
		return "", err
	}
	if err := tx.Commit().Error; err != nil {
		return "", err
	}

	return FormatDocumentNumber(pattern, counter, time.Now()), nil
}

// resolveDocumentNumber honors an explicit number after a uniqueness
// check, and generates the next one when blank.
func resolveDocumentNumber[T any](ctx context.Context, docType DocumentType, column string, explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return GenerateNextNumber(ctx, docType)
	}
	if err := utils.ValidateUnique[T](ctx, column, explicit, 0); err != nil {
		return "", utils.NewValidationError("%s %q is already in use", column, explicit)
	}
	return explicit, nil
}

// ResetCounter sets a sequence counter so the next issued number is n+1.
func ResetCounter(ctx context.Context, docType DocumentType, n int64) error {
	counterKey := string(docType) + sequenceCounterSuffix

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Configuration{}).
		Where("`key` = ?", counterKey).Update("value", fmt.Sprint(n))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &utils.ConfigurationError{Key: counterKey, Message: "counter is not configured"}
	}
	return nil
}
