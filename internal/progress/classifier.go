// Package progress 进度聚合与测验判分规则，不依赖存储，所有函数对相同输入给出相同结果。
package progress

import (
	"errors"
	"fmt"

	"lms_backend/internal/model"
)

// VideoCompletionPercent 视频观看达到时长的该百分比即视为完成
const VideoCompletionPercent = 80

var ErrUnknownContentType = errors.New("unknown content type")

// Signal 一条学习事件中参与完成判定的部分
type Signal struct {
	EventType      model.EventType
	WatchedSeconds *int
	TotalSeconds   *int
}

// Rule 某一类内容的完成判定
type Rule interface {
	Completes(s Signal) bool
}

// VideoRule DurationSeconds 为登记的时长，为空或为 0 时退回到事件上报的总时长
type VideoRule struct {
	DurationSeconds *int
}

func (r VideoRule) Completes(s Signal) bool {
	if s.WatchedSeconds == nil {
		return false
	}
	duration := 0
	if r.DurationSeconds != nil && *r.DurationSeconds > 0 {
		duration = *r.DurationSeconds
	} else if s.TotalSeconds != nil {
		duration = *s.TotalSeconds
	}
	if duration <= 0 {
		return false
	}
	// 整数比较，避免 79.99% 被浮点误差算成 80%
	return *s.WatchedSeconds*100 >= VideoCompletionPercent*duration
}

type FileRule struct{}

func (FileRule) Completes(s Signal) bool {
	return s.EventType == model.EventView || s.EventType == model.EventDownload
}

type TextRule struct{}

func (TextRule) Completes(s Signal) bool {
	return s.EventType == model.EventView
}

// QuizRule 测验内容的完成由判分决定，事件本身从不算完成
type QuizRule struct{}

func (QuizRule) Completes(Signal) bool {
	return false
}

// RuleFor 按内容类型选择判定规则
func RuleFor(content *model.LessonContent) (Rule, error) {
	switch content.ContentType {
	case model.ContentVideo:
		return VideoRule{DurationSeconds: content.MediaDuration()}, nil
	case model.ContentFile:
		return FileRule{}, nil
	case model.ContentText:
		return TextRule{}, nil
	case model.ContentQuiz:
		return QuizRule{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, content.ContentType)
}

// Classify 判定一条事件是否使该内容完成
func Classify(content *model.LessonContent, s Signal) (bool, error) {
	rule, err := RuleFor(content)
	if err != nil {
		return false, err
	}
	return rule.Completes(s), nil
}
