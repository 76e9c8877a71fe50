package contact

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ contactRepo = (*repoMock)(nil)

type repoMock struct {
	Messages map[int]*Message
	nextID   int
	mutex    sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Messages: make(map[int]*Message),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, message *Message) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if message.ID == 0 {
		message.ID = r.nextID
		r.nextID++
	}
	if message.Status == "" {
		message.Status = StatusNew
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	r.Messages[message.ID] = message
	return nil
}

func (r *repoMock) All(_ context.Context) ([]*Message, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var messages []*Message
	for id := range r.Messages {
		messages = append(messages, r.Messages[id])
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}

func (r *repoMock) AllByStatus(_ context.Context, status string) ([]*Message, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var messages []*Message
	for id := range r.Messages {
		if r.Messages[id].Status == status {
			messages = append(messages, r.Messages[id])
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Message, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	message, ok := r.Messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

func (r *repoMock) UpdateStatus(_ context.Context, id int, status string) (*Message, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	message, ok := r.Messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}

	message.Status = status
	return message, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Messages[id]; !ok {
		return ErrMessageNotFound
	}

	delete(r.Messages, id)
	return nil
}
