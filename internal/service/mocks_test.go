package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/transfer"
)

type mockPostRepository struct {
	getByIDFunc        func(ctx context.Context, id int64) (*models.Post, error)
	createFunc         func(ctx context.Context, post *models.Post) (int64, error)
	listQueuedFunc     func(ctx context.Context, userID int64) ([]*models.Post, error)
	listProcessingFunc func(ctx context.Context) ([]*models.Post, error)

	mu             sync.Mutex
	scheduled      map[int64]time.Time
	statuses       map[int64]string
	containers     map[int64]string
	captions       map[int64]string
	media          map[int64][]string
	removed        []int64
	statusUpdates  []string
	updateStatusFn func(ctx context.Context, id int64, status string) error
}

func newMockPostRepository() *mockPostRepository {
	return &mockPostRepository{
		scheduled:  make(map[int64]time.Time),
		statuses:   make(map[int64]string),
		containers: make(map[int64]string),
		captions:   make(map[int64]string),
		media:      make(map[int64][]string),
	}
}

func (m *mockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, post)
	}
	return 1, nil
}

func (m *mockPostRepository) ListQueuedByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	if m.listQueuedFunc != nil {
		return m.listQueuedFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPostRepository) ListProcessingWithContainer(ctx context.Context) ([]*models.Post, error) {
	if m.listProcessingFunc != nil {
		return m.listProcessingFunc(ctx)
	}
	return nil, nil
}

func (m *mockPostRepository) UpdateSchedule(ctx context.Context, id int64, timeToPost time.Time, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[id] = timeToPost
	return nil
}

func (m *mockPostRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = status
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockPostRepository) SetContainerID(ctx context.Context, id int64, containerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[id] = containerID
	return nil
}

func (m *mockPostRepository) SetCaptionAndMedia(ctx context.Context, id int64, caption string, mediaURLs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captions[id] = caption
	m.media[id] = mediaURLs
	return nil
}

func (m *mockPostRepository) Remove(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return nil
}

type mockUserRepository struct {
	getByIDFunc func(ctx context.Context, id int64) (*models.User, error)
	listIDsFunc func(ctx context.Context) ([]int64, error)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	if m.listIDsFunc != nil {
		return m.listIDsFunc(ctx)
	}
	return nil, nil
}

type mockSocialAccountRepository struct {
	listByUserIDFunc func(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
}

func (m *mockSocialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

type mockNotionService struct {
	queryReadyPagesFunc func(ctx context.Context, token, databaseID string, since time.Time) ([]*transfer.NotionPage, error)
	pageBlocksFunc      func(ctx context.Context, token, pageID string) ([]*transfer.NotionBlock, error)

	mu            sync.Mutex
	statusUpdates map[string]string
}

func (m *mockNotionService) QueryReadyPages(ctx context.Context, token, databaseID string, since time.Time) ([]*transfer.NotionPage, error) {
	if m.queryReadyPagesFunc != nil {
		return m.queryReadyPagesFunc(ctx, token, databaseID, since)
	}
	return nil, nil
}

func (m *mockNotionService) PageBlocks(ctx context.Context, token, pageID string) ([]*transfer.NotionBlock, error) {
	if m.pageBlocksFunc != nil {
		return m.pageBlocksFunc(ctx, token, pageID)
	}
	return nil, nil
}

func (m *mockNotionService) UpdatePageStatus(ctx context.Context, token, pageID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[string]string)
	}
	m.statusUpdates[pageID] = status
	return nil
}

type containerCall struct {
	kind    string
	url     string
	isVideo bool
}

type mockInstagramService struct {
	statusFunc  func(ctx context.Context, containerID, accessToken string) (string, error)
	publishFunc func(ctx context.Context, accountID, containerID, accessToken string) error
	createErr   error

	mu           sync.Mutex
	calls        []containerCall
	children     []string
	published    []string
	nextID       int
}

func (m *mockInstagramService) record(kind, url string, isVideo bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, containerCall{kind: kind, url: url, isVideo: isVideo})
	m.nextID++
	return fmt.Sprintf("container-%d", m.nextID)
}

func (m *mockInstagramService) CreatePhotoContainer(ctx context.Context, accountID, imageURL, caption, accessToken string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.record("photo", imageURL, false), nil
}

func (m *mockInstagramService) CreateReelContainer(ctx context.Context, accountID, videoURL, caption, accessToken string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.record("reel", videoURL, true), nil
}

func (m *mockInstagramService) CreateCarouselItemContainer(ctx context.Context, accountID, mediaURL string, isVideo bool, accessToken string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return "item-" + mediaURL, nil
}

func (m *mockInstagramService) CreateCarouselContainer(ctx context.Context, accountID, caption string, children []string, accessToken string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children = children
	m.calls = append(m.calls, containerCall{kind: "carousel"})
	return "carousel-parent", nil
}

func (m *mockInstagramService) ContainerStatus(ctx context.Context, containerID, accessToken string) (string, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx, containerID, accessToken)
	}
	return transfer.ContainerFinished, nil
}

func (m *mockInstagramService) PublishContainer(ctx context.Context, accountID, containerID, accessToken string) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, accountID, containerID, accessToken)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, containerID)
	return nil
}

type mockStorage struct {
	mu              sync.Mutex
	uploads         map[string][]byte
	deletedPrefixes []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{uploads: make(map[string][]byte)}
}

func (m *mockStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[key] = data
	return nil
}

func (m *mockStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (m *mockStorage) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedPrefixes = append(m.deletedPrefixes, prefix)
	return nil
}

type mockEnqueuer struct {
	mu         sync.Mutex
	reconciles []transfer.ReconcileUserPayload
	extracts   []transfer.ExtractContentPayload
	extractAts []time.Time
	stages     []transfer.StageMediaPayload
	publishes  []transfer.PublishPostPayload
	polls      []transfer.PollContainerPayload
}

func (m *mockEnqueuer) EnqueueReconcileUser(ctx context.Context, p transfer.ReconcileUserPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciles = append(m.reconciles, p)
	return nil
}

func (m *mockEnqueuer) EnqueueExtractContent(ctx context.Context, p transfer.ExtractContentPayload, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extracts = append(m.extracts, p)
	m.extractAts = append(m.extractAts, at)
	return nil
}

func (m *mockEnqueuer) EnqueueStageMedia(ctx context.Context, p transfer.StageMediaPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, p)
	return nil
}

func (m *mockEnqueuer) EnqueuePublishPost(ctx context.Context, p transfer.PublishPostPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishes = append(m.publishes, p)
	return nil
}

func (m *mockEnqueuer) EnqueuePollContainer(ctx context.Context, p transfer.PollContainerPayload, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls = append(m.polls, p)
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow() bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow() bool { return false }

type allowAllKeyedLimiter struct{}

func (allowAllKeyedLimiter) Allow(string) bool { return true }

type denyAllKeyedLimiter struct{}

func (denyAllKeyedLimiter) Allow(string) bool { return false }

type mockYoutubeService struct {
	mu        sync.Mutex
	published []transfer.PublishPostPayload
}

func (m *mockYoutubeService) PublishVideo(ctx context.Context, p transfer.PublishPostPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, p)
	return nil
}
