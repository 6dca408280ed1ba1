package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/cropguard/internal/catalog"
	"github.com/example/cropguard/internal/logging"
	"github.com/example/cropguard/internal/repository"
)

type stubStore struct {
	recorded  []*repository.Prediction
	recordErr error
	listed    []repository.Prediction
	listErr   error
	clearErr  error
	clears    int
}

func (s *stubStore) Record(ctx context.Context, p *repository.Prediction) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, p)
	return nil
}

func (s *stubStore) ListByUser(ctx context.Context, userID uint) ([]repository.Prediction, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed, nil
}

func (s *stubStore) ClearUser(ctx context.Context, userID uint) error {
	s.clears++
	return s.clearErr
}

type stubClassifier struct {
	scores [][]float32
	err    error
	calls  int
}

func (s *stubClassifier) Predict(ctx context.Context, tensor []float32) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	scores := s.scores[0]
	if len(s.scores) > 1 {
		s.scores = s.scores[1:]
	}
	return scores, nil
}

type stubCache struct {
	values  map[string]string
	getErr  error
	setErr  error
	delKeys []string
	setKeys []string
	getKeys []string
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	if s.setErr != nil {
		return s.setErr
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if str, ok := value.(string); ok {
		s.values[key] = str
	}
	return nil
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	if s.getErr != nil {
		return "", s.getErr
	}
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *stubCache) Del(ctx context.Context, key string) error {
	s.delKeys = append(s.delKeys, key)
	delete(s.values, key)
	return nil
}

func scoresWithMax(index int, value float32) []float32 {
	scores := make([]float32, catalog.NumClasses)
	for i := range scores {
		scores[i] = 0.01
	}
	scores[index] = value
	return scores
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 30, G: 180, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessBatchRecordsHealthyPrediction(t *testing.T) {
	store := &stubStore{}
	model := &stubClassifier{scores: [][]float32{scoresWithMax(14, 0.95)}}
	uc := NewPredictionUseCase(store, model, nil, zap.NewNop())

	processed, err := uc.ProcessBatch(context.Background(), 1, []UploadedFile{
		{Name: "leaf.png", Data: validPNG(t)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != 1 || len(store.recorded) != 1 {
		t.Fatalf("expected 1 committed prediction, got processed=%d recorded=%d", processed, len(store.recorded))
	}

	p := store.recorded[0]
	if p.DiseaseClass != "Tomato_healthy" {
		t.Errorf("expected Tomato_healthy, got %q", p.DiseaseClass)
	}
	if p.ConfidencePercent != 95.0 {
		t.Errorf("expected confidence 95.0, got %v", p.ConfidencePercent)
	}
	if p.Recommendation != catalog.HealthyRecommendation {
		t.Errorf("expected healthy recommendation, got %q", p.Recommendation)
	}
	if p.UserID != 1 {
		t.Errorf("expected owner 1, got %d", p.UserID)
	}
	if p.ImageData == "" {
		t.Error("expected stored image payload")
	}
}

func TestProcessBatchLowConfidenceRecordsSentinel(t *testing.T) {
	store := &stubStore{}
	model := &stubClassifier{scores: [][]float32{scoresWithMax(4, 0.55)}}
	uc := NewPredictionUseCase(store, model, nil, zap.NewNop())

	if _, err := uc.ProcessBatch(context.Background(), 1, []UploadedFile{
		{Name: "blur.png", Data: validPNG(t)},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := store.recorded[0]
	if p.DiseaseClass != catalog.UnknownLabel {
		t.Errorf("expected sentinel label, got %q", p.DiseaseClass)
	}
	if p.ConfidencePercent != 55.0 {
		t.Errorf("expected confidence 55.0, got %v", p.ConfidencePercent)
	}
	if p.Recommendation != catalog.UnknownRecommendation {
		t.Errorf("expected sentinel recommendation, got %q", p.Recommendation)
	}
}

// A corrupt file mid-batch aborts the remaining files but keeps records
// already committed in the same batch.
func TestProcessBatchFailsFastWithPartialCommit(t *testing.T) {
	store := &stubStore{}
	model := &stubClassifier{scores: [][]float32{scoresWithMax(0, 0.9)}}
	uc := NewPredictionUseCase(store, model, nil, zap.NewNop())

	good := validPNG(t)
	processed, err := uc.ProcessBatch(context.Background(), 1, []UploadedFile{
		{Name: "one.png", Data: good},
		{Name: "two.png", Data: []byte("corrupt bytes")},
		{Name: "three.png", Data: good},
	})
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if processed != 1 || len(store.recorded) != 1 {
		t.Fatalf("expected exactly 1 committed prediction, got processed=%d recorded=%d", processed, len(store.recorded))
	}
	if model.calls != 1 {
		t.Errorf("expected file three to never reach the classifier, got %d calls", model.calls)
	}
}

func TestProcessBatchRejectsEmptyUploads(t *testing.T) {
	store := &stubStore{}
	uc := NewPredictionUseCase(store, &stubClassifier{}, nil, zap.NewNop())

	if _, err := uc.ProcessBatch(context.Background(), 1, nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles for nil list, got %v", err)
	}
	if _, err := uc.ProcessBatch(context.Background(), 1, []UploadedFile{{Name: ""}}); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles for empty filename, got %v", err)
	}
	if len(store.recorded) != 0 {
		t.Errorf("expected no rows written, got %d", len(store.recorded))
	}
}

func TestProcessBatchReportsPersistenceFailure(t *testing.T) {
	store := &stubStore{recordErr: errors.New("store unreachable")}
	model := &stubClassifier{scores: [][]float32{scoresWithMax(0, 0.9)}}
	uc := NewPredictionUseCase(store, model, nil, zap.NewNop())

	_, err := uc.ProcessBatch(context.Background(), 1, []UploadedFile{
		{Name: "leaf.png", Data: validPNG(t)},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "usecase.record_prediction" {
		t.Errorf("unexpected operation: %s", opErr.Operation)
	}
}

func TestProcessBatchInvalidatesHistoryCache(t *testing.T) {
	store := &stubStore{}
	cache := &stubCache{}
	model := &stubClassifier{scores: [][]float32{scoresWithMax(14, 0.95)}}
	uc := NewPredictionUseCase(store, model, cache, zap.NewNop())

	if _, err := uc.ProcessBatch(context.Background(), 7, []UploadedFile{
		{Name: "leaf.png", Data: validPNG(t)},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.delKeys) != 1 || cache.delKeys[0] != "history:7" {
		t.Fatalf("expected history:7 invalidation, got %v", cache.delKeys)
	}
}

func TestHistoryCacheMissFallsBackToStore(t *testing.T) {
	listed := []repository.Prediction{{UserID: 3, DiseaseClass: "Tomato_healthy", ConfidencePercent: 95}}
	store := &stubStore{listed: listed}
	cache := &stubCache{}
	uc := NewPredictionUseCase(store, &stubClassifier{}, cache, zap.NewNop())

	history, err := uc.History(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 || history[0].DiseaseClass != "Tomato_healthy" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if len(cache.setKeys) == 0 || cache.setKeys[0] != "history:3" {
		t.Fatalf("expected history written back to cache, set keys: %v", cache.setKeys)
	}
}

func TestHistoryCacheHitSkipsStore(t *testing.T) {
	store := &stubStore{listErr: errors.New("store should not be called")}
	cache := &stubCache{values: map[string]string{
		"history:5": `[{"UserID":5,"DiseaseClass":"Potato___healthy","ConfidencePercent":91.5}]`,
	}}
	uc := NewPredictionUseCase(store, &stubClassifier{}, cache, zap.NewNop())

	history, err := uc.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 || history[0].DiseaseClass != "Potato___healthy" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestHistoryCacheFailureDegradesToStore(t *testing.T) {
	listed := []repository.Prediction{{UserID: 9, DiseaseClass: "Tomato_healthy"}}
	store := &stubStore{listed: listed}
	cache := &stubCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	uc := NewPredictionUseCase(store, &stubClassifier{}, cache, zap.NewNop())

	history, err := uc.History(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected cache failure to degrade, got error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestClearHistoryClearsStoreAndCache(t *testing.T) {
	store := &stubStore{}
	cache := &stubCache{values: map[string]string{"history:2": "[]"}}
	uc := NewPredictionUseCase(store, &stubClassifier{}, cache, zap.NewNop())

	for i := 0; i < 2; i++ {
		if err := uc.ClearHistory(context.Background(), 2); err != nil {
			t.Fatalf("clear attempt %d: %v", i+1, err)
		}
	}
	if store.clears != 2 {
		t.Errorf("expected 2 store clears, got %d", store.clears)
	}
	if len(cache.delKeys) != 2 {
		t.Errorf("expected 2 cache invalidations, got %v", cache.delKeys)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]repository.Prediction{
		{DiseaseClass: "Tomato_healthy", ConfidencePercent: 95},
		{DiseaseClass: catalog.UnknownLabel, ConfidencePercent: 55},
		{DiseaseClass: "Potato___Late_blight", ConfidencePercent: 81},
	})
	if summary.Total != 3 || summary.Known != 2 || summary.Unknown != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.AverageConfidence != 77.0 {
		t.Errorf("expected average 77.0, got %v", summary.AverageConfidence)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.AverageConfidence != 0 {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
