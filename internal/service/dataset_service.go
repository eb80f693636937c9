package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/analysis"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/combo"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	pendingUploadTTL   = 30 * time.Minute
	classifiedCacheTTL = 10 * time.Minute
	previewRows        = 5
)

// DatasetService owns the canonical dataset. The pure engines never keep
// state, so this is the single place where the current snapshot lives;
// every mutation is an atomic replace under the lock, and every engine
// call works on a copy.
type DatasetService struct {
	mu      sync.RWMutex
	current entity.Dataset
	version int64

	datasetRepo  *repository.DatasetRepository
	rdb          *redis.Client
	classifyOpts analysis.Options
	comboOpts    combo.Options
}

// NewDatasetService creates the dataset owner and restores the last
// persisted dataset, when one exists.
func NewDatasetService(datasetRepo *repository.DatasetRepository, rdb *redis.Client, classifyOpts analysis.Options, comboOpts combo.Options) *DatasetService {
	s := &DatasetService{
		datasetRepo:  datasetRepo,
		rdb:          rdb,
		classifyOpts: classifyOpts,
		comboOpts:    comboOpts,
	}
	if datasetRepo != nil {
		ds, err := datasetRepo.GetAll(context.Background())
		if err != nil {
			logger.Warn().Err(err).Msg("Could not restore persisted dataset")
		} else if len(ds) > 0 {
			s.current = ds
			logger.Info().Msgf("Restored dataset with %d products", len(ds))
		}
	}
	return s
}

// UploadPreview is what the caller inspects before committing an import.
type UploadPreview struct {
	BatchID string         `json:"batch_id"`
	Rows    int            `json:"rows"`
	Preview entity.Dataset `json:"preview"`
}

// StagePreview parks an ingested dataset in Redis under a batch ID so the
// caller can confirm it before it replaces the canonical dataset.
func (s *DatasetService) StagePreview(ctx context.Context, ds entity.Dataset) (*UploadPreview, error) {
	batchID := uuid.NewString()
	payload, err := json.Marshal(ds)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, uploadKey(batchID), payload, pendingUploadTTL).Err(); err != nil {
		logger.Error().Err(err).Msg("Error staging upload")
		return nil, err
	}

	preview := ds
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	return &UploadPreview{BatchID: batchID, Rows: len(ds), Preview: preview}, nil
}

// Commit loads a staged upload as the new canonical dataset.
func (s *DatasetService) Commit(ctx context.Context, batchID string) (int, error) {
	payload, err := s.rdb.Get(ctx, uploadKey(batchID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("upload batch %s not found or expired", batchID)
		}
		return 0, err
	}
	var ds entity.Dataset
	if err := json.Unmarshal([]byte(payload), &ds); err != nil {
		return 0, err
	}
	if err := s.Replace(ctx, ds); err != nil {
		return 0, err
	}
	s.rdb.Del(ctx, uploadKey(batchID))
	return len(ds), nil
}

// Replace atomically swaps the canonical dataset. Derived fields are
// dropped; classification always recomputes them from the raw columns.
func (s *DatasetService) Replace(ctx context.Context, ds entity.Dataset) error {
	stripped := ds.Copy()
	for i := range stripped {
		stripped[i].Profit = 0
		stripped[i].MarginRatio = nil
		stripped[i].ABCClass = ""
		stripped[i].BCGCategory = ""
	}

	s.mu.Lock()
	s.current = stripped
	s.version++
	version := s.version
	s.mu.Unlock()

	if s.datasetRepo != nil {
		if err := s.datasetRepo.ReplaceAll(ctx, stripped); err != nil {
			logger.Error().Err(err).Msg("Error persisting dataset")
			return err
		}
	}
	s.invalidateClassified(ctx, version-1)
	logger.Info().Msgf("Dataset replaced: %d products, version %d", len(stripped), version)
	return nil
}

// Append merges a streamed sale into the canonical dataset: an existing
// product accumulates quantity and revenue, an unknown one becomes a new
// row.
func (s *DatasetService) Append(ctx context.Context, ev entity.SaleEvent) error {
	if ev.Product == "" {
		return fmt.Errorf("sale event without product")
	}

	s.mu.Lock()
	merged := false
	for i := range s.current {
		if s.current[i].Name == ev.Product {
			s.current[i].Quantity += ev.Quantity
			s.current[i].Revenue += ev.Revenue
			if ev.UnitCost > 0 {
				s.current[i].UnitCost = ev.UnitCost
			}
			if ev.UnitPrice > 0 {
				s.current[i].UnitPrice = ev.UnitPrice
			}
			merged = true
			break
		}
	}
	if !merged {
		s.current = append(s.current, entity.ProductRecord{
			Name:      ev.Product,
			Quantity:  ev.Quantity,
			UnitCost:  ev.UnitCost,
			UnitPrice: ev.UnitPrice,
			Revenue:   ev.Revenue,
		})
	}
	s.version++
	version := s.version
	snapshot := s.current.Copy()
	s.mu.Unlock()

	if s.datasetRepo != nil {
		if err := s.datasetRepo.ReplaceAll(ctx, snapshot); err != nil {
			logger.Error().Err(err).Msgf("Error persisting dataset after sale of %s", ev.Product)
		}
	}
	s.invalidateClassified(ctx, version-1)
	return nil
}

// UpsertRow adds or corrects one product row by name.
func (s *DatasetService) UpsertRow(ctx context.Context, rec entity.ProductRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("product name is required")
	}
	s.mu.RLock()
	snapshot := s.current.Copy()
	s.mu.RUnlock()

	replaced := false
	for i := range snapshot {
		if snapshot[i].Name == rec.Name {
			snapshot[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		snapshot = append(snapshot, rec)
	}
	return s.Replace(ctx, snapshot)
}

// DeleteRow removes the first product row with the given name.
func (s *DatasetService) DeleteRow(ctx context.Context, name string) error {
	s.mu.RLock()
	snapshot := s.current.Copy()
	s.mu.RUnlock()

	for i := range snapshot {
		if snapshot[i].Name == name {
			snapshot = append(snapshot[:i], snapshot[i+1:]...)
			return s.Replace(ctx, snapshot)
		}
	}
	return fmt.Errorf("product %s not found", name)
}

// Current returns a snapshot copy of the canonical dataset.
func (s *DatasetService) Current() entity.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Copy()
}

// Classified returns the classified view of the current dataset, cached
// in Redis per dataset version.
func (s *DatasetService) Classified(ctx context.Context) (entity.Dataset, error) {
	s.mu.RLock()
	snapshot := s.current.Copy()
	version := s.version
	s.mu.RUnlock()

	key := classifiedKey(version)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var ds entity.Dataset
		if err := json.Unmarshal([]byte(cached), &ds); err == nil {
			return ds, nil
		}
		logger.Warn().Msgf("Dropping unreadable classified cache %s", key)
	} else if !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msg("Error reading classified cache")
	}

	classified := analysis.Classify(snapshot, s.classifyOpts)
	if payload, err := json.Marshal(classified); err == nil {
		if err := s.rdb.Set(ctx, key, payload, classifiedCacheTTL).Err(); err != nil {
			logger.Error().Err(err).Msg("Error writing classified cache")
		}
	}
	return classified, nil
}

// Summary rolls the classified dataset up into dashboard figures.
func (s *DatasetService) Summary(ctx context.Context) (analysis.Summary, error) {
	classified, err := s.Classified(ctx)
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(classified), nil
}

// Combos suggests up to count promotional bundles under the given
// deduction profile.
func (s *DatasetService) Combos(ctx context.Context, dna entity.DeductionProfile, count int) ([]entity.ComboSuggestion, error) {
	classified, err := s.Classified(ctx)
	if err != nil {
		return nil, err
	}
	return combo.Suggest(classified, dna, count, s.comboOpts), nil
}

// PnL aggregates the current dataset into a net-profit statement.
func (s *DatasetService) PnL(_ context.Context, params entity.FixedParams) entity.Statement {
	return analysis.Rollup(s.Current(), params)
}

func (s *DatasetService) invalidateClassified(ctx context.Context, staleVersion int64) {
	if err := s.rdb.Del(ctx, classifiedKey(staleVersion)).Err(); err != nil {
		logger.Error().Err(err).Msg("Error invalidating classified cache")
	}
}

func uploadKey(batchID string) string {
	return fmt.Sprintf("upload:%s", batchID)
}

func classifiedKey(version int64) string {
	return fmt.Sprintf("classified:v%d", version)
}
