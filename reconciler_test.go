package connect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingUpdateService struct {
	mu      sync.Mutex
	calls   []*Connection
	release chan struct{}
	block   bool
	err     error
	done    chan struct{}
}

func newBlockingUpdateService() *blockingUpdateService {
	return &blockingUpdateService{
		release: make(chan struct{}),
		done:    make(chan struct{}, 16),
	}
}

func (s *blockingUpdateService) SignUp(ctx context.Context, profile *Profile, provider string) (*LocalAccount, error) {
	return nil, nil
}

func (s *blockingUpdateService) Bind(ctx context.Context, account *LocalAccount, profile *Profile, provider string) error {
	return nil
}

func (s *blockingUpdateService) UpdateConnection(ctx context.Context, profile *Profile, conn *Connection) error {
	s.mu.Lock()
	block := s.block
	err := s.err
	s.calls = append(s.calls, conn)
	s.mu.Unlock()

	if block {
		<-s.release
	}

	s.done <- struct{}{}
	return err
}

func (s *blockingUpdateService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func waitForCalls(t *testing.T, s *blockingUpdateService, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-s.done:
		case <-deadline:
			t.Fatalf("timed out waiting for %d update calls", n)
		}
	}
}

func testConnection() *Connection {
	return &Connection{
		LocalUserID:    uuid.New(),
		Provider:       "github",
		ProviderUserID: "p1",
	}
}

func TestReconcilerRunsUpdateAsynchronously(t *testing.T) {
	service := newBlockingUpdateService()
	reconciler := NewReconciler(service)
	defer reconciler.Close()

	conn := testConnection()
	reconciler.UpdateAsync(githubProfile(), conn)

	waitForCalls(t, service, 1)
	assert.Equal(t, 1, service.count())
	assert.Equal(t, conn, service.calls[0])
}

func TestReconcilerSwallowsTaskFailure(t *testing.T) {
	service := newBlockingUpdateService()
	service.err = errors.New("persistence down")

	reconciler := NewReconciler(service)
	defer reconciler.Close()

	reconciler.UpdateAsync(githubProfile(), testConnection())
	waitForCalls(t, service, 1)

	// No retry: a missed reconciliation is corrected on the next login.
	service.mu.Lock()
	service.err = nil
	service.mu.Unlock()
	reconciler.UpdateAsync(githubProfile(), testConnection())
	waitForCalls(t, service, 1)
	assert.Equal(t, 2, service.count())
}

func TestReconcilerFallsBackToSynchronousOnSaturation(t *testing.T) {
	service := newBlockingUpdateService()
	service.block = true

	reconciler := NewReconciler(service, WithWorkers(1), WithQueueSize(0))
	defer reconciler.Close()

	// Occupy the single worker.
	reconciler.UpdateAsync(githubProfile(), testConnection())
	require.Eventually(t, func() bool { return service.count() == 1 }, 2*time.Second, time.Millisecond)

	// The pool cannot accept more work, so this runs inline on the calling
	// goroutine and has completed by the time UpdateAsync returns.
	service.mu.Lock()
	service.block = false
	service.mu.Unlock()

	conn := testConnection()
	reconciler.UpdateAsync(githubProfile(), conn)
	assert.Equal(t, 2, service.count())
	assert.Equal(t, conn, service.calls[1])

	close(service.release)
	waitForCalls(t, service, 2)
}

func TestReconcilerRunsInlineAfterClose(t *testing.T) {
	service := newBlockingUpdateService()
	reconciler := NewReconciler(service)
	reconciler.Close()

	reconciler.UpdateAsync(githubProfile(), testConnection())
	assert.Equal(t, 1, service.count())
}

func TestReconcilerIgnoresNilInput(t *testing.T) {
	service := newBlockingUpdateService()
	reconciler := NewReconciler(service)
	defer reconciler.Close()

	reconciler.UpdateAsync(nil, testConnection())
	reconciler.UpdateAsync(githubProfile(), nil)
	assert.Equal(t, 0, service.count())
}

func TestReconcilerCloseIsIdempotent(t *testing.T) {
	reconciler := NewReconciler(newBlockingUpdateService())
	reconciler.Close()
	reconciler.Close()
}
