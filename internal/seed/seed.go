// Package seed loads the initial league and channel catalog.
package seed

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
)

//go:embed data/sports.txt
var sportsData []byte

// Sports headings of the embedded league list
var Sports = []string{
	"Fútbol (Fútbol Asociación)",
	"Baloncesto",
	"American Football",
	"Beisbol",
	"Hockey sobre Hielo",
	"Rugby",
	"Cricket",
	"Tenis",
	"Voleibol",
	"Balonmano",
	"Motorsports",
	"Golf",
	"Atletismo",
	"Esports",
	"Deportes de Invierno",
	"Natación y Deportes Acuáticos",
	"Ciclismo",
	"Boxeo y Artes Marciales",
	"Deportes Regionales y Alternativos",
	"Otros Deportes Relevantes",
}

// KnownRegions trailing words recognised as a channel region
var KnownRegions = []string{
	"USA", "UK", "Spain", "France", "Italy", "Germany", "Mexico", "Brazil",
	"Argentina", "Australia", "Canada", "Portugal", "Russia", "China", "Japan",
	"India", "Israel", "Bulgaria", "Poland", "Denmark", "Greece", "Romania",
	"Netherlands", "Turkey", "Qatar", "UAE", "Croatia", "Serbia", "BiH",
}

// Leagues parses the embedded league list
func Leagues() ([]model.Entity, error) {
	return ParseSports(bytes.NewReader(sportsData), Sports)
}

// ParseSports reads a league list: a sport heading line, then category lines ending in ":"
// followed by league names. Leagues before the first category of a sport are ignored.
func ParseSports(r io.Reader, sports []string) ([]model.Entity, error) {
	headings := make(map[string]bool, len(sports))
	for _, s := range sports {
		headings[s] = true
	}

	var (
		out      []model.Entity
		sport    string
		category string
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case headings[line]:
			sport, category = line, ""
		case strings.HasSuffix(line, ":"):
			category = strings.TrimSpace(strings.TrimSuffix(line, ":"))
		case sport != "" && category != "":
			out = append(out, model.Entity{
				Catalog:  model.CatalogLeagues,
				Name:     line,
				Group:    sport,
				Category: category,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sports data: %w", err)
	}
	return out, nil
}

// ParseChannels reads one channel per line. "Name (Region)" and "Name Region" with a known
// trailing region set the region; everything else is Global.
func ParseChannels(r io.Reader) ([]model.Entity, error) {
	known := make(map[string]bool, len(KnownRegions))
	for _, k := range KnownRegions {
		known[k] = true
	}

	var out []model.Entity
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, region := splitRegion(line, known)
		if name == "" {
			continue
		}
		out = append(out, model.Entity{
			Catalog:  model.CatalogChannels,
			Name:     name,
			Group:    region,
			Category: model.DefaultChannelCategory,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read channels: %w", err)
	}
	return out, nil
}

func splitRegion(line string, known map[string]bool) (name, region string) {
	if i := strings.Index(line, "("); i >= 0 {
		region = line[i+1:]
		if j := strings.Index(region, "("); j >= 0 {
			region = region[:j]
		}
		region = strings.TrimSpace(strings.Replace(region, ")", "", 1))
		if region == "" {
			region = model.DefaultRegion
		}
		return strings.TrimSpace(line[:i]), region
	}
	if i := strings.LastIndex(line, " "); i >= 0 && known[line[i+1:]] {
		return strings.TrimSpace(line[:i]), line[i+1:]
	}
	return line, model.DefaultRegion
}

// LoadChannels parses the channel file at path; a missing file yields no channels
func LoadChannels(path string) ([]model.Entity, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open channels file: %w", err)
	}
	defer f.Close()
	return ParseChannels(f)
}

// Result what Seed wrote
type Result struct {
	Leagues  int
	Channels int
	Skipped  bool // store already populated and reset disabled
}

// Loader writes the seed catalog into a store
type Loader struct {
	store  interfaces.CatalogStore
	logger *logrus.Logger
}

func NewLoader(store interfaces.CatalogStore, logger *logrus.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// Seed (re)initialises the catalog and records a startup refresh run.
// With ResetOnStart disabled a populated store is left as is.
func (l *Loader) Seed(ctx context.Context, cfg config.SeedConfig) (*Result, error) {
	leagues, err := Leagues()
	if err != nil {
		return nil, err
	}
	channels, err := LoadChannels(cfg.ChannelsFile)
	if err != nil {
		l.logger.WithError(err).WithField("file", cfg.ChannelsFile).Warn("channels file unreadable, seeding leagues only")
		channels = nil
	}

	if cfg.ResetOnStart {
		if err := l.store.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear catalog: %w", err)
		}
	} else {
		existing, err := l.store.ListAll(ctx, model.CatalogLeagues)
		if err != nil {
			return nil, fmt.Errorf("list leagues: %w", err)
		}
		if len(existing) > 0 {
			l.logger.WithField("leagues", len(existing)).Info("catalog already populated, skipping seed")
			return &Result{Skipped: true}, nil
		}
	}

	res := &Result{}
	for _, e := range leagues {
		if _, err := l.store.Create(ctx, e); err != nil {
			return res, fmt.Errorf("seed league %s: %w", e.Name, err)
		}
		res.Leagues++
	}
	for _, e := range channels {
		if _, err := l.store.Create(ctx, e); err != nil {
			return res, fmt.Errorf("seed channel %s: %w", e.Name, err)
		}
		res.Channels++
	}

	if err := l.store.SetLastRefresh(ctx, &model.RefreshRun{Trigger: model.TriggerStartup}); err != nil {
		return res, fmt.Errorf("record startup run: %w", err)
	}

	l.logger.WithFields(logrus.Fields{"leagues": res.Leagues, "channels": res.Channels}).Info("catalog seeded")
	return res, nil
}
