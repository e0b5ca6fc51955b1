package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("MESSAGE_NOT_FOUND")
var ErrMessageDuplicate = errors.New("MESSAGE_DUPLICATE")
var ErrNoRowsAffected = errors.New("NO_ROWS_AFFECTED")

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	Save(ctx context.Context, message *model.Message) error
	UpdateStatusGuarded(ctx context.Context, id string, allowed []model.MessageStatus, updates map[string]interface{}) error
	GetByID(id string) (*model.Message, error)
	GetByUserID(userID string, purpose model.MessagePurpose, limit, offset int) ([]model.Message, error)
	CountByUserID(userID string, purpose model.MessagePurpose) (int, error)
	FindArmed(limit int) ([]model.Message, error)
	Archive(ctx context.Context, id string, at time.Time) error
	HardDelete(ctx context.Context, id string) error
}

type Message struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &Message{db: db}
}

func (m *Message) Create(ctx context.Context, message *model.Message) error {
	db := GetTx(ctx, m.db)
	err := db.Create(message).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrMessageDuplicate
	}

	return err
}

// Save writes the full row, zero values included. Resetting enabled or
// validation flags to false must reach the database, so a partial
// struct update is not enough here.
func (m *Message) Save(ctx context.Context, message *model.Message) error {
	db := GetTx(ctx, m.db)
	result := db.Model(&model.Message{}).
		Where("id = ?", message.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(message)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// UpdateStatusGuarded applies updates only while the row is in one of the
// allowed states. A zero rows-affected result means another writer moved
// the message first.
func (m *Message) UpdateStatusGuarded(ctx context.Context, id string, allowed []model.MessageStatus, updates map[string]interface{}) error {
	db := GetTx(ctx, m.db)
	updates["updated_at"] = time.Now()

	result := db.Model(&model.Message{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (m *Message) GetByID(id string) (*model.Message, error) {
	var message model.Message

	err := m.db.Where("id = ?", id).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

func (m *Message) GetByUserID(userID string, purpose model.MessagePurpose, limit, offset int) ([]model.Message, error) {
	var messages []model.Message

	query := m.db.Where("user_id = ? AND archived_at IS NULL", userID)
	if purpose != "" {
		query = query.Where("purpose = ?", purpose)
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (m *Message) CountByUserID(userID string, purpose model.MessagePurpose) (int, error) {
	var count int64

	query := m.db.Model(&model.Message{}).
		Where("user_id = ? AND archived_at IS NULL", userID)
	if purpose != "" {
		query = query.Where("purpose = ?", purpose)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return int(count), nil
}

// FindArmed returns messages the progress poller still cares about:
// armed, mid-dispatch, or finished-but-recurring.
func (m *Message) FindArmed(limit int) ([]model.Message, error) {
	var messages []model.Message

	err := m.db.Where(
		"archived_at IS NULL AND (status IN ? OR (status = ? AND schedule_kind = ?))",
		[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
		model.MessageStatusFinished,
		model.ScheduleKindMonthly,
	).Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (m *Message) Archive(ctx context.Context, id string, at time.Time) error {
	db := GetTx(ctx, m.db)
	result := db.Model(&model.Message{}).
		Where("id = ? AND archived_at IS NULL", id).
		Updates(map[string]interface{}{"archived_at": at, "enabled": false, "updated_at": at})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func (m *Message) HardDelete(ctx context.Context, id string) error {
	db := GetTx(ctx, m.db)
	result := db.Where("id = ?", id).Delete(&model.Message{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}
