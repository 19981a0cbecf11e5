package eventhandlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"study-backend/metrics"
	"study-backend/models"
)

const checkedPrefix = "TaskChecked:"

// TaskChecker reads and applies a checker verdict to an assignment.
type TaskChecker interface {
	GetTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error)
	UpdateTaskStudent(ctx context.Context, id int, in models.TaskStudentUpdate) (*models.TaskStudent, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaHandler consumes verdicts from the external task checker. Messages look
// like "TaskChecked:<task_student_id>:<status>:<grade>"; grade may be empty.
type KafkaHandler struct {
	Reader    messageReader
	Store     TaskChecker
	Publisher *Publisher
	Log       zerolog.Logger
	retryWait time.Duration
}

func NewKafkaHandler(brokers []string, topic, groupID string, st TaskChecker, pub *Publisher, log zerolog.Logger) *KafkaHandler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaHandler{Reader: reader, Store: st, Publisher: pub, Log: log, retryWait: time.Second}
}

// Start reads until ctx is cancelled.
func (kh *KafkaHandler) Start(ctx context.Context) {
	defer kh.Reader.Close()
	for {
		m, err := kh.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				kh.Log.Info().Msg("task check consumer stopped")
				return
			}
			kh.Log.Error().Err(err).Msg("error reading kafka message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(kh.retryWait):
			}
			continue
		}
		kh.Log.Debug().Str("value", string(m.Value)).Int64("offset", m.Offset).Msg("received kafka message")
		kh.processMessage(ctx, string(m.Value))
	}
}

type checkVerdict struct {
	TaskStudentID int
	Status        string
	Grade         *int
}

func parseVerdict(message string) (checkVerdict, error) {
	var v checkVerdict
	if !strings.HasPrefix(message, checkedPrefix) {
		return v, errors.New("unknown message type")
	}
	parts := strings.Split(message[len(checkedPrefix):], ":")
	if len(parts) != 3 {
		return v, errors.New("invalid message format")
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id <= 0 {
		return v, fmt.Errorf("invalid task student id %q", parts[0])
	}
	if !models.IsStatus(parts[1]) {
		return v, fmt.Errorf("invalid status %q", parts[1])
	}
	v.TaskStudentID, v.Status = id, parts[1]
	if parts[2] != "" {
		g, err := strconv.Atoi(parts[2])
		if err != nil || g < 0 || g > 100 {
			return v, fmt.Errorf("invalid grade %q", parts[2])
		}
		v.Grade = &g
	}
	return v, nil
}

func (kh *KafkaHandler) processMessage(ctx context.Context, message string) {
	v, err := parseVerdict(message)
	if err != nil {
		metrics.KafkaMessage("invalid")
		kh.Log.Warn().Err(err).Str("message", message).Msg("skipping kafka message")
		return
	}

	before, err := kh.Store.GetTaskStudent(ctx, v.TaskStudentID)
	if err != nil {
		metrics.KafkaMessage("failed")
		kh.Log.Error().Err(err).Int("task_student_id", v.TaskStudentID).Msg("failed to load task student")
		return
	}
	ts, err := kh.Store.UpdateTaskStudent(ctx, v.TaskStudentID, models.TaskStudentUpdate{
		Status: &v.Status,
		Grade:  v.Grade,
	})
	if err != nil {
		metrics.KafkaMessage("failed")
		kh.Log.Error().Err(err).Int("task_student_id", v.TaskStudentID).Msg("failed to apply task check")
		return
	}
	metrics.KafkaMessage("ok")
	if ts.Status == models.StatusCompleted && before.Status != models.StatusCompleted {
		metrics.TaskCompleted()
	}
	kh.Log.Info().Int("task_student_id", ts.ID).Str("status", ts.Status).Msg("recorded task check")
	kh.Publisher.Publish(ctx, TaskStudentUpdated, ts.ID, ts)
}
