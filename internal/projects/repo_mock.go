package projects

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ projectsRepo = (*repoMock)(nil)

type repoMock struct {
	Projects map[int]*Project
	nextID   int
	mutex    sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Projects: make(map[int]*Project),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, project *Project) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if project.ID == 0 {
		project.ID = r.nextID
		r.nextID++
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	project.UpdatedAt = project.CreatedAt

	r.Projects[project.ID] = project
	return nil
}

func (r *repoMock) Update(_ context.Context, project *Project) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Projects[project.ID]
	if !ok {
		return ErrProjectNotFound
	}

	project.ViewCount = existing.ViewCount
	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = time.Now()
	r.Projects[project.ID] = project
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Projects[id]; !ok {
		return ErrProjectNotFound
	}

	delete(r.Projects, id)
	return nil
}

func (r *repoMock) IncrementViews(_ context.Context, id int) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	project, ok := r.Projects[id]
	if !ok {
		return -1, ErrProjectNotFound
	}

	project.ViewCount++
	return project.ViewCount, nil
}

func (r *repoMock) All(_ context.Context) ([]*Project, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var projects []*Project
	for id := range r.Projects {
		projects = append(projects, r.Projects[id])
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (r *repoMock) AllByCategory(_ context.Context, category string) ([]*Project, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var projects []*Project
	for id := range r.Projects {
		if r.Projects[id].Category == category {
			projects = append(projects, r.Projects[id])
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Project, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	project, ok := r.Projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (r *repoMock) MostViewed(_ context.Context, limit int) ([]PopularProject, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var all []*Project
	for id := range r.Projects {
		if r.Projects[id].ViewCount > 0 {
			all = append(all, r.Projects[id])
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ViewCount > all[j].ViewCount
	})

	if len(all) > limit {
		all = all[:limit]
	}

	var popular []PopularProject
	for _, p := range all {
		popular = append(popular, PopularProject{
			ID:        p.ID,
			Title:     p.Title,
			Company:   p.Company,
			ViewCount: p.ViewCount,
		})
	}
	return popular, nil
}
