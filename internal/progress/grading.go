package progress

import (
	"math"
	"time"

	"lms_backend/internal/model"
)

// Answer 学员提交的单题作答
type Answer struct {
	QuestionID string  `json:"questionId" binding:"required"`
	OptionID   *string `json:"optionId,omitempty"`
	AnswerText *string `json:"answerText,omitempty"`
}

type GradeResult struct {
	Responses  []model.QuizResponse
	Score      float64
	MaxScore   float64
	Percentage float64
	Passed     bool
}

// MaxScore 题目分值之和
func MaxScore(questions []model.QuizQuestion) float64 {
	total := 0.0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// QuestionPoints 开始作答时冻结的各题分值，判分按此计分
func QuestionPoints(questions []model.QuizQuestion) map[string]float64 {
	points := make(map[string]float64, len(questions))
	for _, q := range questions {
		points[q.ID] = q.Points
	}
	return points
}

// Passed 按百分比比较：score/maxScore*100 >= passScore。
// 乘法形式比较以避开除法的舍入；maxScore 为 0 时只有 passScore <= 0 才算通过
func Passed(score, maxScore, passScore float64) bool {
	if maxScore <= 0 {
		return passScore <= 0
	}
	return score*100 >= passScore*maxScore
}

func percentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(score/maxScore*100*100) / 100
}

func autoGradable(t model.QuestionType) bool {
	return t == model.QuestionMultipleChoice || t == model.QuestionTrueFalse
}

// Grade 对一次作答判分。maxScore 与 points 为开始作答时冻结的满分和各题分值，
// points 为 nil 时按题目当前分值计分；开始作答之后新增的题目不计入。
// 每道题生成一条作答记录：未作答或选项不属于该题记 0 分；
// 简答题没有自动判分规则，记 0 分且 Graded=false；不属于该测验的题目忽略。
// 得分不超过 maxScore
func Grade(quiz *model.Quiz, maxScore float64, points map[string]float64, answers []Answer, now time.Time) GradeResult {
	byQuestion := make(map[string]Answer, len(answers))
	for _, a := range answers {
		if _, dup := byQuestion[a.QuestionID]; !dup {
			byQuestion[a.QuestionID] = a
		}
	}

	res := GradeResult{MaxScore: maxScore}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		worth := q.Points
		if points != nil {
			frozen, ok := points[q.ID]
			if !ok {
				continue
			}
			worth = frozen
		}
		resp := model.QuizResponse{
			QuestionID: q.ID,
			AnsweredAt: now,
		}
		a, answered := byQuestion[q.ID]
		if answered {
			resp.OptionID = a.OptionID
			resp.AnswerText = a.AnswerText
		}

		if !autoGradable(q.QuestionType) {
			res.Responses = append(res.Responses, resp)
			continue
		}
		resp.Graded = true
		if answered && a.OptionID != nil {
			for _, opt := range q.Options {
				if opt.ID == *a.OptionID && opt.IsCorrect {
					resp.IsCorrect = true
					resp.PointsEarned = worth
					break
				}
			}
		}
		res.Score += resp.PointsEarned
		res.Responses = append(res.Responses, resp)
	}

	if res.Score > maxScore {
		res.Score = maxScore
	}
	res.Percentage = percentage(res.Score, maxScore)
	res.Passed = Passed(res.Score, maxScore, quiz.PassScore)
	return res
}
