package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	traceFile    = "trace.bin"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Name           string             `json:"name,omitempty"`
	Model          string             `json:"model"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Backend        string             `json:"backend"`
	Restitution    float64            `json:"restitution"`
	MaxTime        float64            `json:"max_time"`
	Particles      int                `json:"particles"`
	FinalParticles int                `json:"final_particles"`
	FinalTime      float64            `json:"final_time"`
	Steps          int                `json:"steps"`
	Frames         int                `json:"frames"`
	Elapsed        float64            `json:"elapsed_seconds"`
	Error          string             `json:"error,omitempty"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Create makes a new run directory holding a copy of cfg and returns its id.
func (s *Store) Create(cfg *config.Config) (string, error) {
	prefix := cfg.Model
	if cfg.Name != "" {
		prefix = cfg.Name
	}
	base := fmt.Sprintf("%s_%d", prefix, time.Now().Unix())

	runID := base
	for i := 1; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, runID), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}

	if err := config.Save(s.ConfigPath(runID), cfg); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) RunDir(runID string) string     { return filepath.Join(s.baseDir, runID) }
func (s *Store) TracePath(runID string) string  { return filepath.Join(s.baseDir, runID, traceFile) }
func (s *Store) ConfigPath(runID string) string { return filepath.Join(s.baseDir, runID, configFile) }

// Finish writes the metadata of a completed or failed run.
func (s *Store) Finish(runID string, cfg *config.Config, result *sim.Result, elapsed time.Duration, runErr error) (*RunMetadata, error) {
	meta := RunMetadata{
		ID:          runID,
		Name:        cfg.Name,
		Model:       cfg.Model,
		Timestamp:   time.Now(),
		Seed:        cfg.Seed,
		Backend:     cfg.Backend,
		Restitution: cfg.Restitution,
		MaxTime:     cfg.MaxTime,
		Particles:   cfg.NumParticles,
		Elapsed:     elapsed.Seconds(),
		Metrics:     map[string]float64{},
	}
	if result != nil {
		meta.FinalTime = result.FinalTime
		meta.Steps = result.Steps
		meta.Frames = result.Frames
		meta.Metrics = result.Metrics
		if result.Final != nil {
			meta.FinalParticles = result.Final.Len()
		}
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	metaFile, err := os.Create(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns every run with readable metadata, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(s.ConfigPath(runID))
}
