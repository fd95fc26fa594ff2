// Package model defines shared data structures.
package model

import "time"

// User is the identity of an authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned by the login and signup endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// User extracts the identity part of the response.
func (r AuthResponse) User() User {
	return User{ID: r.UserID, Username: r.Username, Email: r.Email}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Transcript is submitted to the backend scorer when a session finishes.
// Duration is in whole seconds.
type Transcript struct {
	OriginalText string `json:"originalText"`
	TypedText    string `json:"typedText"`
	Duration     int    `json:"duration"`
}

// ResultSource tells whether a result came from the backend or was computed locally.
type ResultSource string

const (
	SourceRemote ResultSource = "remote"
	SourceLocal  ResultSource = "local"
)

// SessionResult is the final score of a typing session.
type SessionResult struct {
	WPM            float64      `json:"wpm"`
	Accuracy       float64      `json:"accuracy"`
	Errors         int          `json:"errors"`
	CorrectedChars int          `json:"correctedChars"`
	Source         ResultSource `json:"-"`
}

// Profile is returned by GET /dashboard/profile.
type Profile struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CreatedAt    Timestamp `json:"createdAt"`
	TotalTests   int       `json:"totalTests"`
	BestWPM      float64   `json:"bestWpm"`
	BestAccuracy float64   `json:"bestAccuracy"`
}

// UserStats is returned by GET /dashboard/stats.
type UserStats struct {
	BestWPM               float64 `json:"bestWpm"`
	AverageWPM            float64 `json:"averageWpm"`
	BestAccuracy          float64 `json:"bestAccuracy"`
	AverageAccuracy       float64 `json:"averageAccuracy"`
	TotalTests            int     `json:"totalTests"`
	TotalTimeSeconds      int     `json:"totalTimeSeconds"`
	TotalCharactersTyped  int     `json:"totalCharactersTyped"`
	TotalErrors           int     `json:"totalErrors"`
	RecentAverageWPM      float64 `json:"recentAverageWpm"`
	RecentAverageAccuracy float64 `json:"recentAverageAccuracy"`
}

// HistoryEntry is one stored test as returned by the history endpoints.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	Duration     int       `json:"duration"`
	TotalChars   int       `json:"totalChars"`
	CorrectChars int       `json:"correctChars"`
	Errors       int       `json:"errors"`
	WPM          float64   `json:"wpm"`
	Accuracy     float64   `json:"accuracy"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// HistoryPage is returned by GET /dashboard/history.
type HistoryPage struct {
	Content       []HistoryEntry `json:"content"`
	TotalPages    int            `json:"totalPages"`
	TotalElements int            `json:"totalElements"`
	Size          int            `json:"size"`
	Number        int            `json:"number"`
	First         bool           `json:"first"`
	Last          bool           `json:"last"`
}

// LocalResult is a finished session recorded in the local database.
type LocalResult struct {
	ID         int64
	FinishedAt time.Time
	Words      int
	DurationS  int
	Result     SessionResult
}
