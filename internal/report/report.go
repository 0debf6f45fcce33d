// Package report renders the analysis queries as HTML and terminal tables.
package report

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/renameio/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/mongostore"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

// Thresholds applied to the relational reports.
const (
	MinConstructorSeasons = 3
	TopConstructorsLimit  = 10
	MinCircuitSamples     = 10
	TopCircuitsLimit      = 15
	MongoMinYear          = 2021
	RecentMinYear         = 2021
	DefaultCircuit        = "Circuit de Monaco"
)

// Report file names.
const (
	FileTopConstructors      = "top_constructors.html"
	FileCircuitPerformance   = "circuit_performance.html"
	FileConstructorEvolution = "constructor_evolution.html"
	FileWeatherImpact        = "weather_impact.html"
	FileMongoWeatherImpact   = "mongodb_weather_impact.html"
	FileMongoCircuits        = "mongodb_circuit_performance.html"
	FileMongoStats           = "mongodb_stats.html"
	FileRecentRaces          = "recent_races.csv"
	FileCombinedAnalysis     = "combined_analysis.html"
)

// CircuitFile names the per-circuit trend report, e.g. circuit_circuit_de_monaco.html.
func CircuitFile(circuit string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(circuit)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return "circuit_" + strings.TrimSuffix(b.String(), "_") + ".html"
}

// Documents is the part of the document store the reports read.
type Documents interface {
	WeatherImpact(ctx context.Context, year *int) ([]mongostore.ConditionSpeed, error)
	CircuitTrend(ctx context.Context, circuit string, minYear int) ([]mongostore.RacePerformance, error)
	CircuitAverages(ctx context.Context, minYear int) ([]mongostore.CircuitAverage, error)
	Stats(ctx context.Context) (f1.CollectionStats, error)
}

// Generator writes report files into a directory.
type Generator struct {
	reader  store.Reader
	docs    Documents
	outDir  string
	circuit string
	logger  *zap.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithCircuit selects the circuit of the per-circuit trend report. Blank
// names keep DefaultCircuit.
func WithCircuit(name string) Option {
	return func(g *Generator) {
		if name = strings.TrimSpace(name); name != "" {
			g.circuit = name
		}
	}
}

// New builds a Generator. docs may be nil when no document store is configured.
func New(reader store.Reader, docs Documents, outDir string, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{reader: reader, docs: docs, outDir: outDir, circuit: DefaultCircuit, logger: logging.OrNop(logger)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type page struct {
	file  string
	title string
	build func(ctx context.Context) (table.Writer, error)
	// write defaults to WriteHTML.
	write func(path, title string, tw table.Writer) error
}

// Generate renders every report and returns the written paths.
func (g *Generator) Generate(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(g.outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	pages := []page{
		{FileTopConstructors, "Top constructors", g.topConstructors, nil},
		{FileCircuitPerformance, "Average fastest-lap speed per circuit", g.circuitPerformance, nil},
		{FileConstructorEvolution, "Constructor points per season", g.constructorEvolution, nil},
		{FileWeatherImpact, "Weather and fastest-lap speed", g.weatherImpact, nil},
		{FileRecentRaces, "", g.recentRaces, writeCSV},
	}
	if g.docs != nil {
		pages = append(pages,
			page{FileMongoWeatherImpact, "Average speed in rain and dry conditions", g.mongoWeather, nil},
			page{FileMongoCircuits, fmt.Sprintf("Average performance per circuit since %d", MongoMinYear), g.mongoCircuits, nil},
			page{FileMongoStats, "Collection statistics", g.mongoStats, nil},
			page{FileCombinedAnalysis, fmt.Sprintf("Races since %d against circuit averages", RecentMinYear), g.combinedAnalysis, nil},
			page{CircuitFile(g.circuit), fmt.Sprintf("%s since %d", g.circuit, MongoMinYear), g.circuitTrend, nil},
		)
	}

	written := make([]string, 0, len(pages))
	for _, p := range pages {
		tw, err := p.build(ctx)
		if err != nil {
			return written, fmt.Errorf("report %s: %w", p.file, err)
		}
		path := filepath.Join(g.outDir, p.file)
		write := p.write
		if write == nil {
			write = WriteHTML
		}
		if err := write(path, p.title, tw); err != nil {
			return written, err
		}
		g.logger.Info("report written", zap.String("path", path), zap.Int("rows", tw.Length()))
		written = append(written, path)
	}
	return written, nil
}

func (g *Generator) topConstructors(ctx context.Context) (table.Writer, error) {
	rows, err := g.reader.TopConstructors(ctx, MinConstructorSeasons, TopConstructorsLimit)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Constructor", "Total points", "Seasons"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Constructor, r.TotalPoints, r.Seasons})
	}
	return t, nil
}

func (g *Generator) circuitPerformance(ctx context.Context) (table.Writer, error) {
	rows, err := g.reader.CircuitSpeeds(ctx, MinCircuitSamples, TopCircuitsLimit)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Circuit", "Avg speed (km/h)", "Samples"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Circuit, fmt.Sprintf("%.2f", r.AvgSpeed), r.Samples})
	}
	return t, nil
}

func (g *Generator) constructorEvolution(ctx context.Context) (table.Writer, error) {
	rows, err := g.reader.ConstructorEvolution(ctx)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Year", "Constructor", "Points"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Year, r.Constructor, r.Points})
	}
	return t, nil
}

func (g *Generator) weatherImpact(ctx context.Context) (table.Writer, error) {
	rows, err := g.reader.WeatherImpact(ctx)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Circuit", "Temperature", "Humidity", "Fastest lap speed"})
	for _, r := range rows {
		t.AppendRow(table.Row{deref(r.Circuit), r.Temperature, r.Humidity, r.FastestLapSpeed})
	}
	return t, nil
}

func (g *Generator) mongoWeather(ctx context.Context) (table.Writer, error) {
	rows, err := g.docs.WeatherImpact(ctx, nil)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Condition", "Avg speed (km/h)", "Races"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Condition, fmt.Sprintf("%.2f", r.AvgSpeed), r.RacesCount})
	}
	return t, nil
}

func (g *Generator) mongoCircuits(ctx context.Context) (table.Writer, error) {
	rows, err := g.docs.CircuitAverages(ctx, MongoMinYear)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Circuit", "Avg performance", "Races"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Circuit, fmt.Sprintf("%.2f", r.AvgPerformance), r.RacesCount})
	}
	return t, nil
}

func (g *Generator) recentRaces(ctx context.Context) (table.Writer, error) {
	rows, err := g.reader.RecentRaces(ctx, RecentMinYear)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"year", "race_name", "circuit", "drivers_count", "avg_speed"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Year, r.RaceName, deref(r.Circuit), r.DriversCount, speed(r.AvgSpeed)})
	}
	return t, nil
}

// combinedAnalysis sets each recent race beside the document store's
// average for its circuit.
func (g *Generator) combinedAnalysis(ctx context.Context) (table.Writer, error) {
	races, err := g.reader.RecentRaces(ctx, RecentMinYear)
	if err != nil {
		return nil, err
	}
	averages, err := g.docs.CircuitAverages(ctx, MongoMinYear)
	if err != nil {
		return nil, err
	}
	byCircuit := make(map[string]float64, len(averages))
	for _, a := range averages {
		byCircuit[a.Circuit] = a.AvgPerformance
	}

	t := NewTable(nil)
	t.AppendHeader(table.Row{"Year", "Race", "Circuit", "Drivers", "Avg fastest-lap speed", "Circuit avg performance"})
	for _, r := range races {
		circuit := deref(r.Circuit)
		avg := ""
		if v, ok := byCircuit[circuit]; ok {
			avg = fmt.Sprintf("%.2f", v)
		}
		t.AppendRow(table.Row{r.Year, r.RaceName, circuit, r.DriversCount, speed(r.AvgSpeed), avg})
	}
	return t, nil
}

func (g *Generator) circuitTrend(ctx context.Context) (table.Writer, error) {
	rows, err := g.docs.CircuitTrend(ctx, g.circuit, MongoMinYear)
	if err != nil {
		return nil, err
	}
	t := NewTable(nil)
	t.AppendHeader(table.Row{"Year", "Race", "Avg speed (km/h)", "Max speed (km/h)", "Avg RPM", "Best lap"})
	for _, r := range rows {
		rpm := ""
		if r.AvgRPM != nil {
			rpm = fmt.Sprintf("%.0f", *r.AvgRPM)
		}
		t.AppendRow(table.Row{r.ID.Year, r.ID.RaceName, speed(r.AvgSpeed), speed(r.MaxSpeed), rpm, deref(r.BestLapTime)})
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func speed(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func (g *Generator) mongoStats(ctx context.Context) (table.Writer, error) {
	st, err := g.docs.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return StatsTable(nil, st), nil
}

// NewTable returns a rounded table that mirrors its renders to out when out
// is not nil.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if out != nil {
		t.SetOutputMirror(out)
	}
	return t
}

// StatsTable lists races per season followed by the unique counts.
func StatsTable(out io.Writer, st f1.CollectionStats) table.Writer {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Statistic", "Value"})
	for _, y := range st.SortedYears() {
		t.AppendRow(table.Row{fmt.Sprintf("Races in %d", y), st.RacesPerYear[y]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Unique circuits", st.Circuits})
	t.AppendRow(table.Row{"Unique drivers", st.Drivers})
	return t
}

func writeCSV(path, _ string, tw table.Writer) error {
	if err := renameio.WriteFile(path, []byte(tw.RenderCSV()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteHTML atomically writes a standalone page holding tw under title.
func WriteHTML(path, title string, tw table.Writer) error {
	var b strings.Builder
	escaped := html.EscapeString(title)
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(escaped)
	b.WriteString("</title>\n</head>\n<body>\n<h1>")
	b.WriteString(escaped)
	b.WriteString("</h1>\n")
	b.WriteString(tw.RenderHTML())
	b.WriteString("\n</body>\n</html>\n")
	if err := renameio.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
