package models

import "time"

// Question is a forum question posted by any authenticated user. The answer
// count is derived from the answers table, never stored.
type Question struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Answer is a reply to a question. The question author may mark one or more
// answers as accepted.
type Answer struct {
	ID         string    `db:"id" json:"id"`
	QuestionID string    `db:"question_id" json:"question_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	Content    string    `db:"content" json:"content"`
	Accepted   bool      `db:"accepted" json:"accepted"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Accept marks the answer as accepted by the question author.
func (a *Answer) Accept() {
	a.Accepted = true
}

// QuestionRequest creates or edits a question.
type QuestionRequest struct {
	Title   string `json:"title" validate:"required,min=5,max=500"`
	Content string `json:"content" validate:"required,min=10"`
}

// AnswerRequest creates or edits an answer.
type AnswerRequest struct {
	Content string `json:"content" validate:"required,min=5"`
}

// QuestionDetail joins a question with its author name and answer count.
type QuestionDetail struct {
	Question
	AuthorName  string `db:"author_name" json:"author_name"`
	AnswerCount int    `db:"answer_count" json:"answer_count"`
}

// AnswerDetail joins an answer with its author name.
type AnswerDetail struct {
	Answer
	AuthorName string `db:"author_name" json:"author_name"`
}
