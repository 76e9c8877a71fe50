package achievements

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ achievementsRepo = (*repoMock)(nil)

type repoMock struct {
	Achievements map[int]*Achievement
	nextID       int
	mutex        sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Achievements: make(map[int]*Achievement),
		nextID:       1,
	}
}

func (r *repoMock) Add(_ context.Context, achievement *Achievement) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if achievement.ID == 0 {
		achievement.ID = r.nextID
		r.nextID++
	}
	if achievement.CreatedAt.IsZero() {
		achievement.CreatedAt = time.Now()
	}

	r.Achievements[achievement.ID] = achievement
	return nil
}

func (r *repoMock) Update(_ context.Context, achievement *Achievement) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Achievements[achievement.ID]
	if !ok {
		return ErrAchievementNotFound
	}

	achievement.CreatedAt = existing.CreatedAt
	r.Achievements[achievement.ID] = achievement
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Achievements[id]; !ok {
		return ErrAchievementNotFound
	}

	delete(r.Achievements, id)
	return nil
}

func (r *repoMock) All(_ context.Context) ([]*Achievement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var achievements []*Achievement
	for id := range r.Achievements {
		achievements = append(achievements, r.Achievements[id])
	}
	sort.Slice(achievements, func(i, j int) bool {
		return achievements[i].ID < achievements[j].ID
	})
	return achievements, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Achievement, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	achievement, ok := r.Achievements[id]
	if !ok {
		return nil, ErrAchievementNotFound
	}
	return achievement, nil
}
