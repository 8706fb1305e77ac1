package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/identifier"
)

// Default REST endpoints.
const (
	DefaultTarkURL          = "https://tark.ensembl.org/api"
	DefaultEnsemblGRCh38URL = "https://rest.ensembl.org"
	DefaultEnsemblGRCh37URL = "https://grch37.rest.ensembl.org"
)

// RESTConfig configures the REST gateway.
type RESTConfig struct {
	TarkURL          string
	EnsemblGRCh38URL string
	EnsemblGRCh37URL string
	Timeout          time.Duration // Per-request HTTP timeout
	Retries          int           // Retries after 429/5xx responses
	RetryInterval    time.Duration // Initial backoff interval
}

// DefaultRESTConfig returns the public TARK and Ensembl endpoints with
// three retries starting at two seconds.
func DefaultRESTConfig() RESTConfig {
	return RESTConfig{
		TarkURL:          DefaultTarkURL,
		EnsemblGRCh38URL: DefaultEnsemblGRCh38URL,
		EnsemblGRCh37URL: DefaultEnsemblGRCh37URL,
		Timeout:          30 * time.Second,
		Retries:          3,
		RetryInterval:    2 * time.Second,
	}
}

// RESTGateway looks up transcripts in TARK and variants and gene overlaps
// in the Ensembl REST API.
type RESTGateway struct {
	cfg        RESTConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *Metrics
}

// NewRESTGateway creates a new REST gateway.
func NewRESTGateway(cfg RESTConfig) *RESTGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	return &RESTGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for retry and failure messages.
func (g *RESTGateway) SetLogger(l *zap.Logger) {
	g.logger = l
}

// SetMetrics enables request counters.
func (g *RESTGateway) SetMetrics(m *Metrics) {
	g.metrics = m
}

func (g *RESTGateway) ensemblURL(asm Assembly) string {
	if asm == GRCh37 {
		return g.cfg.EnsemblGRCh37URL
	}
	return g.cfg.EnsemblGRCh38URL
}

// errRetryable marks a response worth retrying.
type errRetryable struct {
	status int
}

func (e *errRetryable) Error() string {
	return fmt.Sprintf("retryable status %d", e.status)
}

// getJSON fetches a URL, retrying 429 and 5xx responses with exponential
// backoff. 400 and 404 map to ErrNotFound.
func (g *RESTGateway) getJSON(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("REST API request failed: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("read response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &errRetryable{status: resp.StatusCode}
		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("REST API error %d: %s", resp.StatusCode, string(msg)))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.RetryInterval
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(g.cfg.Retries, 0))), ctx)

	notify := func(err error, wait time.Duration) {
		g.metrics.retry(endpoint)
		g.logger.Warn("API request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Error(err),
			zap.Duration("wait", wait))
	}

	err := backoff.RetryNotify(op, policy, notify)
	switch {
	case err == nil:
		g.metrics.request(endpoint, outcomeOK)
		return body, nil
	case errors.Is(err, ErrNotFound):
		g.metrics.request(endpoint, outcomeNotFound)
		return nil, ErrNotFound
	default:
		g.metrics.request(endpoint, outcomeError)
		var re *errRetryable
		if errors.As(err, &re) {
			g.logger.Error("max retries exceeded", zap.String("url", rawURL))
			return nil, fmt.Errorf("max retries exceeded: %w", err)
		}
		return nil, err
	}
}

// tarkTranscript is one entry of the TARK transcript search response.
type tarkTranscript struct {
	StableID        string     `json:"stable_id"`
	StableIDVersion flexString `json:"stable_id_version"`
	Assembly        string     `json:"assembly"`
	Biotype         string     `json:"biotype"`
	LocRegion       string     `json:"loc_region"`
	LocStart        int64      `json:"loc_start"`
	LocEnd          int64      `json:"loc_end"`
	LocStrand       int        `json:"loc_strand"`
	ManeType        string     `json:"mane_transcript_type"`
	FivePrimeStart  *int64     `json:"five_prime_utr_start"`
	FivePrimeEnd    *int64     `json:"five_prime_utr_end"`
	ThreePrimeStart *int64     `json:"three_prime_utr_start"`
	ThreePrimeEnd   *int64     `json:"three_prime_utr_end"`
	Genes           []tarkGene `json:"genes"`
	Exons           []tarkExon `json:"exons"`
}

type tarkGene struct {
	Name     string `json:"name"`
	StableID string `json:"stable_id"`
}

type tarkExon struct {
	StableID  string `json:"stable_id"`
	ExonOrder int    `json:"exon_order"`
	LocStart  int64  `json:"loc_start"`
	LocEnd    int64  `json:"loc_end"`
}

// flexString decodes a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(string(b))
	return nil
}

func (tt *tarkTranscript) toTranscript(asm Assembly) *Transcript {
	t := &Transcript{
		Accession:  tt.StableID,
		Version:    string(tt.StableIDVersion),
		Biotype:    tt.Biotype,
		ManeStatus: NormalizeManeStatus(tt.ManeType),
		Chrom:      normalizeChrom(tt.LocRegion),
		Start:      tt.LocStart,
		End:        tt.LocEnd,
		Strand:     int8(tt.LocStrand),
		Assembly:   asm,
	}
	for _, gn := range tt.Genes {
		if gn.Name != "" {
			t.GeneSymbol = gn.Name
			break
		}
	}
	if len(tt.Genes) > 0 {
		t.GeneID = tt.Genes[0].StableID
	}
	if tt.FivePrimeStart != nil && tt.FivePrimeEnd != nil {
		t.FivePrimeUTR = newSpan(*tt.FivePrimeStart, *tt.FivePrimeEnd)
	}
	if tt.ThreePrimeStart != nil && tt.ThreePrimeEnd != nil {
		t.ThreePrimeUTR = newSpan(*tt.ThreePrimeStart, *tt.ThreePrimeEnd)
	}

	exons := make([]tarkExon, len(tt.Exons))
	copy(exons, tt.Exons)
	sort.SliceStable(exons, func(i, j int) bool { return exons[i].ExonOrder < exons[j].ExonOrder })
	t.Exons = make([]Exon, len(exons))
	for i, e := range exons {
		t.Exons[i] = Exon{ID: e.StableID, Number: i + 1, Start: e.LocStart, End: e.LocEnd}
	}
	return t
}

// LookupTranscripts searches TARK for a gene symbol or unversioned accession.
// Gene symbol searches keep RefSeq NM_/NR_ transcripts; accession searches
// keep the requested accession.
func (g *RESTGateway) LookupTranscripts(ctx context.Context, id string, asm Assembly) ([]*Transcript, error) {
	q := url.Values{}
	q.Set("identifier_field", id)
	q.Set("expand", "transcript_release_set,genes,exons")
	q.Set("assembly_name", asm.String())
	searchURL := strings.TrimRight(g.cfg.TarkURL, "/") + "/transcript/search/?" + q.Encode()

	body, err := g.getJSON(ctx, "tark_search", searchURL)
	if err != nil {
		return nil, fmt.Errorf("tark search %s: %w", id, err)
	}

	var raw []tarkTranscript
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode tark response: %w", err)
	}

	var out []*Transcript
	seen := make(map[string]bool)
	for i := range raw {
		tt := &raw[i]
		if tt.Assembly != asm.String() {
			continue
		}
		if !strings.EqualFold(tt.StableID, id) &&
			!strings.HasPrefix(tt.StableID, "NM_") && !strings.HasPrefix(tt.StableID, "NR_") {
			continue
		}
		t := tt.toTranscript(asm)
		key := t.VersionedAccession()
		if seen[key] {
			continue
		}
		seen[key] = true
		if t.GeneSymbol == "" {
			t.GeneSymbol = id
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LookupVariant resolves an rsID with the Ensembl VEP endpoint. The first
// RefSeq transcript consequence supplies accession and gene.
func (g *RESTGateway) LookupVariant(ctx context.Context, rsid string, asm Assembly) (*Variant, error) {
	vepURL := fmt.Sprintf("%s/vep/human/id/%s?merged=true&content-type=application/json",
		strings.TrimRight(g.ensemblURL(asm), "/"), url.PathEscape(rsid))

	body, err := g.getJSON(ctx, "vep_id", vepURL)
	if err != nil {
		return nil, fmt.Errorf("vep lookup %s: %w", rsid, err)
	}
	return parseVEPVariant(body, rsid, asm)
}

func parseVEPVariant(body []byte, rsid string, asm Assembly) (*Variant, error) {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("decode vep response: %w", err)
	}
	first := parsed.Index(0)
	if first == nil || first.Data() == nil {
		return nil, ErrNotFound
	}

	v := &Variant{
		RsID:                  rsid,
		Chrom:                 normalizeChrom(stringAt(first, "seq_region_name")),
		Start:                 int64At(first, "start"),
		End:                   int64At(first, "end"),
		Strand:                int8(int64At(first, "strand")),
		AlleleString:          stringAt(first, "allele_string"),
		MostSevereConsequence: stringAt(first, "most_severe_consequence"),
		Assembly:              asm,
	}
	if v.Strand == 0 {
		v.Strand = 1
	}
	if v.Chrom == "" || v.Start == 0 {
		return nil, ErrNotFound
	}

	consequences, _ := first.Path("transcript_consequences").Children()
	for _, c := range consequences {
		if stringAt(c, "source") != "RefSeq" {
			continue
		}
		v.Accession = stringAt(c, "transcript_id")
		v.GeneSymbol = stringAt(c, "gene_symbol")
		v.GeneID = stringAt(c, "hgnc_id")
		if terms, _ := c.Path("consequence_terms").Children(); len(terms) > 0 {
			if s, ok := terms[0].Data().(string); ok {
				v.Consequence = s
			}
		}
		break
	}
	return v, nil
}

func stringAt(c *gabs.Container, path string) string {
	switch v := c.Path(path).Data().(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

func int64At(c *gabs.Container, path string) int64 {
	if f, ok := c.Path(path).Data().(float64); ok {
		return int64(f)
	}
	return 0
}

// overlapFeature is one entry of the Ensembl overlap/region response.
type overlapFeature struct {
	ID           string `json:"id"`
	ExternalName string `json:"external_name"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	Strand       int    `json:"strand"`
	Biotype      string `json:"biotype"`
	SeqRegion    string `json:"seq_region_name"`
}

// LookupRegion lists genes overlapping a region via Ensembl overlap/region.
func (g *RESTGateway) LookupRegion(ctx context.Context, region identifier.Region, asm Assembly) ([]GeneFeature, error) {
	overlapURL := fmt.Sprintf("%s/overlap/region/human/%s:%d-%d?feature=gene;content-type=application/json",
		strings.TrimRight(g.ensemblURL(asm), "/"), ensemblChrom(region.Chrom), region.Start, region.End)

	body, err := g.getJSON(ctx, "overlap_region", overlapURL)
	if err != nil {
		return nil, fmt.Errorf("overlap lookup %s: %w", region, err)
	}

	var raw []overlapFeature
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode overlap response: %w", err)
	}

	out := make([]GeneFeature, 0, len(raw))
	for _, f := range raw {
		chrom := normalizeChrom(f.SeqRegion)
		if chrom == "" {
			chrom = region.Chrom
		}
		out = append(out, GeneFeature{
			ID:       f.ID,
			Name:     f.ExternalName,
			Chrom:    chrom,
			Start:    f.Start,
			End:      f.End,
			Strand:   int8(f.Strand),
			Biotype:  f.Biotype,
			Assembly: asm,
		})
	}
	return out, nil
}
