package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/view"
)

// gatedDispatcher blocks each prediction until the gate for its year opens.
type gatedDispatcher struct {
	entered chan int
	gates   map[int]chan struct{}
}

func (d *gatedDispatcher) SubmitTraining(ctx context.Context) (advisor.TrainResponse, error) {
	return advisor.TrainResponse{Success: true}, nil
}

func (d *gatedDispatcher) FetchYears(ctx context.Context) ([]int, error) {
	return nil, nil
}

func (d *gatedDispatcher) SubmitPrediction(ctx context.Context, req advisor.PredictionRequest) (advisor.PredictionResponse, error) {
	d.entered <- req.Year
	<-d.gates[req.Year]
	return advisor.PredictionResponse{
		Success: true,
		Year:    req.Year,
		Games:   []advisor.GameResult{{Rank: 1, Name: fmt.Sprintf("Game %d", req.Year)}},
	}, nil
}

func TestStalePredictionIsDropped(t *testing.T) {
	d := &gatedDispatcher{
		entered: make(chan int),
		gates:   map[int]chan struct{}{2001: make(chan struct{}), 2002: make(chan struct{})},
	}
	server, err := NewServer(Config{Dispatcher: d})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	p := server.sessions.Get("s1")
	ctx := context.Background()

	done := make(chan int, 2)
	run := func(year string) {
		status, _ := server.runPrediction(ctx, "s1", p, url.Values{"year": {year}, "max_games": {"1"}})
		done <- status
	}

	go run("2001")
	<-d.entered
	go run("2002")
	<-d.entered

	close(d.gates[2002])
	if status := <-done; status != http.StatusOK {
		t.Fatalf("newer run: unexpected status %d", status)
	}
	close(d.gates[2001])
	if status := <-done; status != http.StatusOK {
		t.Fatalf("stale run: unexpected status %d", status)
	}

	snap := p.Snapshot()
	if !strings.Contains(snap.Results.CardsHTML, "Game 2002") || strings.Contains(snap.Results.CardsHTML, "Game 2001") {
		t.Fatalf("stale response overwrote newer results: %s", snap.Results.CardsHTML)
	}
	if snap.Loading {
		t.Fatalf("loading indicator left on")
	}
}

func TestNewServerRequiresDispatcher(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}

// gatedTrainer counts training calls and holds them until release closes.
type gatedTrainer struct {
	gatedDispatcher
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (d *gatedTrainer) SubmitTraining(ctx context.Context) (advisor.TrainResponse, error) {
	d.calls.Add(1)
	d.started <- struct{}{}
	<-d.release
	return advisor.TrainResponse{Success: true, Message: "Model trained successfully!"}, nil
}

func TestConcurrentTrainingSharesOneCall(t *testing.T) {
	d := &gatedTrainer{started: make(chan struct{}, 2), release: make(chan struct{})}
	server, err := NewServer(Config{Dispatcher: d})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	p1 := server.sessions.Get("s1")
	p2 := server.sessions.Get("s2")
	t.Cleanup(func() {
		p1.Close()
		p2.Close()
	})

	done := make(chan int, 2)
	go func() {
		status, _ := server.runTraining(context.Background(), "s1", p1)
		done <- status
	}()
	<-d.started

	go func() {
		status, _ := server.runTraining(context.Background(), "s2", p2)
		done <- status
	}()
	deadline := time.Now().Add(2 * time.Second)
	for p2.Snapshot().TrainButton.Label != view.LabelTraining {
		if time.Now().After(deadline) {
			t.Fatalf("second session never started training")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(d.release)

	for i := 0; i < 2; i++ {
		if status := <-done; status != http.StatusOK {
			t.Fatalf("unexpected status %d", status)
		}
	}
	if calls := d.calls.Load(); calls != 1 {
		t.Fatalf("expected one backend call, got %d", calls)
	}
	for _, p := range []*view.Presenter{p1, p2} {
		if snap := p.Snapshot(); snap.TrainButton.Label != view.LabelTrained || snap.TrainStatus.Text != "Model trained successfully!" {
			t.Fatalf("unexpected train state %+v", snap.TrainButton)
		}
	}
}
