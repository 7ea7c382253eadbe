package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"optrader/internal/domain"
)

// Compile-time interface check.
var _ PortfolioStore = (*FileStore)(nil)

// FileStore persists portfolios as JSON, one file per mode, under Dir:
// portfolio.json for real trading and simulated_portfolio.json for
// simulation. The two files are independent instances and are never merged.
type FileStore struct {
	dir         string
	initialCash float64
}

// NewFileStore creates a FileStore rooted at dir. initialCash seeds a fresh
// portfolio when no file exists yet.
func NewFileStore(dir string, initialCash float64) *FileStore {
	return &FileStore{dir: dir, initialCash: initialCash}
}

// Path returns the portfolio file path for mode.
func (s *FileStore) Path(mode domain.Mode) string {
	name := "portfolio.json"
	if mode == domain.ModeSimulated {
		name = "simulated_portfolio.json"
	}
	return filepath.Join(s.dir, name)
}

// portfolioFile is the on-disk record. Pointer fields distinguish a missing
// field in an older file from a legitimate zero, so old files stay readable
// with documented defaults.
type portfolioFile struct {
	Cash         *float64             `json:"cash"`
	BuyingPower  *float64             `json:"buying_power,omitempty"`
	Equity       *float64             `json:"equity,omitempty"`
	Positions    []domain.Position    `json:"positions"`
	Orders       []domain.Order       `json:"orders"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Load reads the portfolio for mode. An absent file initializes a fresh
// portfolio with the documented defaults and persists it. An unparseable
// file fails with domain.ErrCorruptPortfolio and is left untouched.
func (s *FileStore) Load(mode domain.Mode) (*domain.Portfolio, error) {
	data, err := os.ReadFile(s.Path(mode))
	if os.IsNotExist(err) {
		p := s.fresh(mode)
		if err := s.Save(p, mode); err != nil {
			return nil, fmt.Errorf("initializing %s portfolio: %w", mode, err)
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	var f portfolioFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", s.Path(mode), err, domain.ErrCorruptPortfolio)
	}

	p := &domain.Portfolio{
		Mode:         mode,
		Positions:    f.Positions,
		Orders:       f.Orders,
		Transactions: f.Transactions,
	}
	if f.Cash != nil {
		p.Cash = *f.Cash
	} else {
		p.Cash = s.initialCash
	}

	if mode == domain.ModeSimulated {
		// Older files may predate these fields; derive them from cash per
		// the 2x margin assumption.
		if f.BuyingPower != nil {
			p.BuyingPower = *f.BuyingPower
		} else {
			p.BuyingPower = p.Cash * 2
		}
		if f.Equity != nil {
			p.Equity = *f.Equity
		} else {
			p.Equity = p.Cash
			for i := range p.Positions {
				p.Equity += p.Positions[i].CostBasis()
			}
		}
	}

	return p, nil
}

// Save writes the full portfolio state to a temp file in the same directory
// and renames it over the target, so readers never observe a partial write.
func (s *FileStore) Save(p *domain.Portfolio, mode domain.Mode) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	f := portfolioFile{
		Cash:         &p.Cash,
		Positions:    p.Positions,
		Orders:       p.Orders,
		Transactions: p.Transactions,
	}
	if mode == domain.ModeSimulated {
		f.BuyingPower = &p.BuyingPower
		f.Equity = &p.Equity
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling portfolio: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".portfolio-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.Path(mode)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// fresh builds a new portfolio with the documented defaults: initial cash,
// no positions, orders, or transactions; simulated mode additionally seeds
// buying power at 2x cash and equity equal to cash.
func (s *FileStore) fresh(mode domain.Mode) *domain.Portfolio {
	p := &domain.Portfolio{
		Mode:         mode,
		Cash:         s.initialCash,
		Positions:    []domain.Position{},
		Orders:       []domain.Order{},
		Transactions: []domain.Transaction{},
	}
	if mode == domain.ModeSimulated {
		p.BuyingPower = s.initialCash * 2
		p.Equity = s.initialCash
	}
	return p
}
