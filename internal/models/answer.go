package models

import "time"

// AnswerShape describes which Answer fields a kind uses.
type AnswerShape string

const (
	AnswerShapeText  AnswerShape = "text"
	AnswerShapeYesNo AnswerShape = "yes-no"
	AnswerShapeTask  AnswerShape = "task"
)

type YesNo string

const (
	Yes    YesNo = "yes"
	KindOf YesNo = "kind-of"
	No     YesNo = "no"
)

type TaskAction string

const (
	TaskActionDone        TaskAction = "done"
	TaskActionAlreadyDone TaskAction = "already-done"
)

// Answer is one recorded interaction. Exactly one of Text, Choice or Action
// is set, according to the entity kind's AnswerShape.
type Answer struct {
	At     time.Time  `json:"at"`
	Text   string     `json:"text,omitempty"`
	Choice YesNo      `json:"choice,omitempty"`
	Action TaskAction `json:"action,omitempty"`
}

func (y YesNo) Valid() bool {
	return y == Yes || y == KindOf || y == No
}

func (a TaskAction) Valid() bool {
	return a == TaskActionDone || a == TaskActionAlreadyDone
}
