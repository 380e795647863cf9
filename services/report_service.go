package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"undervalued-homes/config"
	"undervalued-homes/models"
	"undervalued-homes/report"
	"undervalued-homes/storage"
	"undervalued-homes/utils"
)

// Fetcher retrieves raw listings for a search.
type Fetcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.RawListing, error)
}

// Renderer turns a dataset into document, HTML and PDF bytes.
type Renderer interface {
	Render(ctx context.Context, ds *models.ReportDataset) (*report.Bundle, error)
}

// ReportService runs one search through the curation pipeline and publishes
// the resulting artifacts.
type ReportService struct {
	fetcher    Fetcher
	normalizer *Normalizer
	curator    *Curator
	assembler  *Assembler
	renderer   Renderer
	store      storage.ArtifactWriter
	debug      storage.DebugSink

	urlPrefix string
	logger    *utils.Logger
	newID     func() string
}

// NewReportService wires the pipeline stages from cfg.
func NewReportService(cfg *config.Config, fetcher Fetcher, renderer Renderer, store storage.ArtifactWriter, logger *utils.Logger) *ReportService {
	return &ReportService{
		fetcher:    fetcher,
		normalizer: NewNormalizer(logger, cfg.ListingBaseURL),
		curator:    NewCurator(logger, cfg.QuartilePercent, cfg.PriceAdjustment),
		assembler:  NewAssembler(cfg.PriceAdjustment),
		renderer:   renderer,
		store:      store,
		urlPrefix:  cfg.ArtifactURLPrefix,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// WithDebugSink enables dumping of intermediate data. A nil sink disables it.
func (s *ReportService) WithDebugSink(sink storage.DebugSink) *ReportService {
	s.debug = sink
	return s
}

// Generate fetches, curates and renders one report. Upstream errors are
// returned as-is; empty populations wrap ErrEmptyPopulation and renderer or
// store failures wrap ErrRendering.
func (s *ReportService) Generate(ctx context.Context, q models.SearchQuery) (*models.ReportResult, error) {
	id := s.newID()
	log := s.logger.With("request_id", id)

	raw, err := s.fetcher.Search(ctx, q)
	if err != nil {
		log.Error("[report] Search failed: %v", err)
		return nil, err
	}

	records := s.normalizer.Normalize(raw)
	s.dump(log, id, "canonical_records", records)

	curation, err := s.curator.Curate(records)
	if err != nil {
		log.Warn("[report] Curation failed: %v", err)
		return nil, err
	}

	ds := s.assembler.Assemble(curation.Undervalued, curation.Region, curation.Summary)
	s.dump(log, id, "report_dataset", ds)

	artifacts, err := s.publish(ctx, id, ds)
	if err != nil {
		log.Error("[report] %v", err)
		return nil, err
	}

	log.Info("[report] Report ready for %s: %d of %d homes", ds.Region, len(ds.Records), ds.Summary.TotalHomes)
	return &models.ReportResult{ID: id, Dataset: ds, Artifacts: artifacts}, nil
}

func (s *ReportService) publish(ctx context.Context, id string, ds *models.ReportDataset) (models.Artifacts, error) {
	bundle, err := s.renderer.Render(ctx, ds)
	if err != nil {
		return models.Artifacts{}, fmt.Errorf("%w: %v", ErrRendering, err)
	}

	csvData, err := storage.EncodeCSV(ds.Rows())
	if err != nil {
		return models.Artifacts{}, fmt.Errorf("%w: %v", ErrRendering, err)
	}

	var a models.Artifacts
	files := []struct {
		name string
		data []byte
		link *string
	}{
		{report.BaseName + ".md", bundle.Markdown, &a.Document},
		{report.BaseName + ".html", bundle.HTML, &a.HTML},
		{report.BaseName + ".pdf", bundle.PDF, &a.PDF},
		{report.BaseName + ".csv", csvData, &a.CSV},
	}

	for _, f := range files {
		if err := s.store.Save(id, f.name, f.data); err != nil {
			return models.Artifacts{}, fmt.Errorf("%w: %v", ErrRendering, err)
		}
		*f.link = fmt.Sprintf("%s/download/%s/%s", s.urlPrefix, id, f.name)
	}
	return a, nil
}

func (s *ReportService) dump(log *utils.Logger, id, name string, v any) {
	if s.debug == nil {
		return
	}
	if err := s.debug.Dump(id, name, v); err != nil {
		log.Warn("[report] Debug dump %s failed: %v", name, err)
	}
}
