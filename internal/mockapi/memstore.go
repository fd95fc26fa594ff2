package mockapi

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/stats"
)

var (
	errUsernameTaken = errors.New("Username already exists")
	errEmailTaken    = errors.New("Email already present")
)

type account struct {
	user         model.User
	passwordHash []byte
	createdAt    time.Time
}

type storedResult struct {
	entry  model.HistoryEntry
	userID int64
}

// memStore keeps accounts and results for the lifetime of the server.
type memStore struct {
	mu       sync.RWMutex
	accounts map[int64]*account
	byName   map[string]int64
	byEmail  map[string]int64
	results  []storedResult
	nextUser int64
	nextRes  int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[int64]*account{},
		byName:   map[string]int64{},
		byEmail:  map[string]int64{},
	}
}

func (m *memStore) createUser(username, email string, hash []byte, now time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return model.User{}, errUsernameTaken
	}
	if _, ok := m.byEmail[email]; ok {
		return model.User{}, errEmailTaken
	}
	m.nextUser++
	user := model.User{ID: m.nextUser, Username: username, Email: email}
	m.accounts[user.ID] = &account{user: user, passwordHash: hash, createdAt: now}
	m.byName[username] = user.ID
	m.byEmail[email] = user.ID
	return user, nil
}

func (m *memStore) findByName(username string) (account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return account{}, false
	}
	return *m.accounts[id], true
}

func (m *memStore) findByID(id int64) (account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return account{}, false
	}
	return *acc, true
}

func (m *memStore) addResult(userID int64, durationS, totalChars int, res model.SessionResult, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRes++
	m.results = append(m.results, storedResult{
		userID: userID,
		entry: model.HistoryEntry{
			ID:           m.nextRes,
			Duration:     durationS,
			TotalChars:   totalChars,
			CorrectChars: res.CorrectedChars,
			Errors:       res.Errors,
			WPM:          res.WPM,
			Accuracy:     res.Accuracy,
			CreatedAt:    model.Timestamp{Time: now},
		},
	})
}

// history returns the user's results newest first with rounded scores.
func (m *memStore) history(userID int64) []model.HistoryEntry {
	out := m.rawHistory(userID)
	for i := range out {
		out[i].WPM = stats.Round2(out[i].WPM)
		out[i].Accuracy = stats.Round2(out[i].Accuracy)
	}
	return out
}

func (m *memStore) profile(userID int64) (model.Profile, bool) {
	acc, ok := m.findByID(userID)
	if !ok {
		return model.Profile{}, false
	}
	history := m.rawHistory(userID)
	p := model.Profile{
		ID:         acc.user.ID,
		Username:   acc.user.Username,
		Email:      acc.user.Email,
		CreatedAt:  model.Timestamp{Time: acc.createdAt},
		TotalTests: len(history),
	}
	for _, e := range history {
		p.BestWPM = max(p.BestWPM, e.WPM)
		p.BestAccuracy = max(p.BestAccuracy, e.Accuracy)
	}
	p.BestWPM = stats.Round2(p.BestWPM)
	p.BestAccuracy = stats.Round2(p.BestAccuracy)
	return p, true
}

func (m *memStore) userStats(userID int64) model.UserStats {
	history := m.rawHistory(userID)
	var out model.UserStats
	if len(history) == 0 {
		return out
	}
	var sumWPM, sumAcc, recentWPM, recentAcc float64
	for i, e := range history {
		out.BestWPM = max(out.BestWPM, e.WPM)
		out.BestAccuracy = max(out.BestAccuracy, e.Accuracy)
		sumWPM += e.WPM
		sumAcc += e.Accuracy
		out.TotalTimeSeconds += e.Duration
		out.TotalCharactersTyped += e.TotalChars
		out.TotalErrors += e.Errors
		if i < recentWindow {
			recentWPM += e.WPM
			recentAcc += e.Accuracy
		}
	}
	n := float64(len(history))
	recent := float64(min(len(history), recentWindow))
	out.TotalTests = len(history)
	out.BestWPM = stats.Round2(out.BestWPM)
	out.BestAccuracy = stats.Round2(out.BestAccuracy)
	out.AverageWPM = stats.Round2(sumWPM / n)
	out.AverageAccuracy = stats.Round2(sumAcc / n)
	out.RecentAverageWPM = stats.Round2(recentWPM / recent)
	out.RecentAverageAccuracy = stats.Round2(recentAcc / recent)
	return out
}

// recentWindow is how many of the newest results feed the recent averages.
const recentWindow = 10

// rawHistory is history without rounding, newest first.
func (m *memStore) rawHistory(userID int64) []model.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.HistoryEntry
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].userID == userID {
			out = append(out, m.results[i].entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out
}
