package scanner

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/matcher"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers with a fixed reply after an optional delay
type fakeProvider struct {
	name      models.Provider
	reply     string
	delay     time.Duration
	available bool

	inFlight *int32
	peak     *int32
}

func (f *fakeProvider) Name() models.Provider { return f.name }
func (f *fakeProvider) IsAvailable() bool     { return f.available }

func (f *fakeProvider) Scan(ctx context.Context, prompt string, brands []string) models.ScanResult {
	if f.inFlight != nil {
		n := atomic.AddInt32(f.inFlight, 1)
		defer atomic.AddInt32(f.inFlight, -1)
		for {
			p := atomic.LoadInt32(f.peak)
			if n <= p || atomic.CompareAndSwapInt32(f.peak, p, n) {
				break
			}
		}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return models.Failed(f.name, prompt, models.FailureError, string(f.name)+" request timed out")
	}
	return models.Succeeded(f.name, prompt, f.reply, matcher.FindBrands(f.reply, brands))
}

// mockProvider records calls through testify's mock
type mockProvider struct {
	mock.Mock
	name models.Provider
}

func (m *mockProvider) Name() models.Provider { return m.name }

func (m *mockProvider) IsAvailable() bool {
	return m.Called().Bool(0)
}

func (m *mockProvider) Scan(ctx context.Context, prompt string, brands []string) models.ScanResult {
	return m.Called(prompt, brands).Get(0).(models.ScanResult)
}

func fakes(delays ...time.Duration) []providers.Provider {
	names := models.Providers()
	ps := make([]providers.Provider, len(names))
	for i, name := range names {
		ps[i] = &fakeProvider{name: name, reply: "Notion and Asana", delay: delays[i], available: true}
	}
	return ps
}

func TestGeneratePrompts(t *testing.T) {
	full, err := GeneratePrompts("  project management tools ", models.CadenceFull)
	require.NoError(t, err)
	require.Len(t, full, 5)
	assert.Equal(t, "What are the best project management tools?", full[0])
	assert.Equal(t, "Can you recommend some top project management tools for "+strconv.Itoa(time.Now().Year())+"?", full[1])

	lite, err := GeneratePrompts("crm software", models.CadenceLite)
	require.NoError(t, err)
	require.Len(t, lite, 3)
	assert.Equal(t, "What are the best crm software?", lite[0])

	_, err = GeneratePrompts("   ", models.CadenceFull)
	assert.ErrorIs(t, err, ErrEmptyKeyword)

	_, err = GeneratePrompts("crm", models.Cadence("hourly"))
	assert.Error(t, err)
}

func TestParseCadence(t *testing.T) {
	c, err := ParseCadence("")
	require.NoError(t, err)
	assert.Equal(t, models.CadenceFull, c)

	c, err = ParseCadence(" LITE ")
	require.NoError(t, err)
	assert.Equal(t, models.CadenceLite, c)

	_, err = ParseCadence("weekly")
	assert.Error(t, err)
}

func TestRunScan_OrderIsFixed(t *testing.T) {
	// gemini finishes first and chatgpt last, the order must not change
	s := New(fakes(30*time.Millisecond, 15*time.Millisecond, 0), time.Second)

	for _, cadence := range []models.Cadence{models.CadenceFull, models.CadenceLite} {
		t.Run(string(cadence), func(t *testing.T) {
			results, err := s.RunScan(context.Background(), "crm software", []string{"Notion", "Asana"}, cadence)
			require.NoError(t, err)

			prompts, _ := GeneratePrompts("crm software", cadence)
			require.Len(t, results, len(prompts)*3)

			for i, r := range results {
				assert.Equal(t, prompts[i/3], r.Prompt)
				assert.Equal(t, models.Providers()[i%3], r.Provider)
				assert.Equal(t, []string{"Notion", "Asana"}, r.BrandsFound)
			}
		})
	}
}

func TestRunScan_Concurrency(t *testing.T) {
	tests := []struct {
		cadence  models.Cadence
		expected int32
	}{
		{cadence: models.CadenceFull, expected: 3},
		{cadence: models.CadenceLite, expected: 9},
	}

	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			var inFlight, peak int32
			ps := fakes(40*time.Millisecond, 40*time.Millisecond, 40*time.Millisecond)
			for _, p := range ps {
				p.(*fakeProvider).inFlight = &inFlight
				p.(*fakeProvider).peak = &peak
			}

			_, err := New(ps, time.Second).RunScan(context.Background(), "crm software", []string{"Notion"}, tt.cadence)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, atomic.LoadInt32(&peak))
		})
	}
}

func TestRunScan_SlowProviderFailsAlone(t *testing.T) {
	s := New(fakes(0, 0, time.Second), 50*time.Millisecond)

	start := time.Now()
	results, err := s.RunScan(context.Background(), "crm software", []string{"Notion"}, models.CadenceLite)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	for _, r := range results {
		if r.Provider == models.ProviderGemini {
			assert.False(t, r.OK())
			assert.Contains(t, r.FailureReason(), "timed out")
			continue
		}
		assert.True(t, r.OK())
		assert.Equal(t, []string{"Notion"}, r.BrandsFound)
	}
}

func TestRunScan_NoCredentials(t *testing.T) {
	t.Setenv(config.OpenAIKeyEnv, "")
	t.Setenv(config.PerplexityKeyEnv, " ")
	t.Setenv(config.GeminiKeyEnv, "")

	s := New(providers.Default(&config.Config{}), time.Second)

	assert.Equal(t, map[models.Provider]bool{
		models.ProviderChatGPT:    false,
		models.ProviderPerplexity: false,
		models.ProviderGemini:     false,
	}, s.Availability())
	assert.False(t, s.AnyAvailable())

	for cadence, expected := range map[models.Cadence]int{models.CadenceLite: 9, models.CadenceFull: 15} {
		results, err := s.RunScan(context.Background(), "crm software", []string{"HubSpot"}, cadence)
		require.NoError(t, err)
		require.Len(t, results, expected)

		for _, r := range results {
			assert.False(t, r.OK())
			assert.Equal(t, models.FailureNoKey, r.Failure.Kind)
			assert.Contains(t, r.FailureReason(), "not configured")
			assert.Empty(t, r.BrandsFound)
		}
	}
}

func TestRunScan_Validation(t *testing.T) {
	m := &mockProvider{name: models.ProviderChatGPT}
	s := New([]providers.Provider{m}, time.Second)

	_, err := s.RunScan(context.Background(), "", []string{"Notion"}, models.CadenceFull)
	assert.ErrorIs(t, err, ErrEmptyKeyword)

	_, err = s.RunScan(context.Background(), "crm software", []string{" ", ""}, models.CadenceFull)
	assert.ErrorIs(t, err, ErrNoBrands)

	_, err = s.ScanOnce(context.Background(), " ", []string{"Notion"})
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	// nothing reached the provider
	m.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

func TestScanOnce(t *testing.T) {
	var mu sync.Mutex
	var prompts []string

	ps := make([]providers.Provider, 0, 3)
	for _, name := range models.Providers() {
		m := &mockProvider{name: name}
		m.On("Scan", "Which CRM?", []string{"HubSpot"}).Run(func(args mock.Arguments) {
			mu.Lock()
			prompts = append(prompts, args.String(0))
			mu.Unlock()
		}).Return(models.Succeeded(name, "Which CRM?", "HubSpot", []string{"HubSpot"}))
		ps = append(ps, m)
	}

	results, err := New(ps, time.Second).ScanOnce(context.Background(), "Which CRM?", []string{"HubSpot", "hubspot"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Len(t, prompts, 3)

	for i, r := range results {
		assert.Equal(t, models.Providers()[i], r.Provider)
		assert.True(t, r.OK())
	}
	for _, p := range ps {
		p.(*mockProvider).AssertExpectations(t)
	}
}

func TestDiagnose(t *testing.T) {
	t.Setenv(config.OpenAIKeyEnv, "sk-abcdefghijk ")
	t.Setenv(config.PerplexityKeyEnv, "")
	t.Setenv(config.GeminiKeyEnv, "")

	diagnosis, err := New(fakes(0, 0, 0), time.Second).Diagnose(context.Background(), "crm software", []string{"Notion"})
	require.NoError(t, err)

	assert.Equal(t, "What are the best crm software?", diagnosis.Prompt)
	assert.Equal(t, "all_working", diagnosis.Status)
	require.Len(t, diagnosis.Results, 3)
	assert.Equal(t, []string{"Notion"}, diagnosis.Results[0].BrandsFound)

	require.NotNil(t, diagnosis.KeyDiagnostics[models.ProviderChatGPT])
	assert.Equal(t, "sk-abcd...", diagnosis.KeyDiagnostics[models.ProviderChatGPT].Prefix)
	assert.Equal(t, 15, diagnosis.KeyDiagnostics[models.ProviderChatGPT].Length)
	assert.Equal(t, 14, diagnosis.KeyDiagnostics[models.ProviderChatGPT].TrimmedLength)
	assert.Nil(t, diagnosis.KeyDiagnostics[models.ProviderGemini])
}

func TestDiagnose_Partial(t *testing.T) {
	ps := fakes(0, 0, time.Second)
	ps[1].(*fakeProvider).available = false

	diagnosis, err := New(ps, 50*time.Millisecond).Diagnose(context.Background(), "crm software", []string{"Notion"})
	require.NoError(t, err)

	assert.Equal(t, "partial", diagnosis.Status)
	assert.False(t, diagnosis.Availability[models.ProviderPerplexity])
	assert.False(t, diagnosis.Results[2].Success)
	assert.Contains(t, diagnosis.Results[2].Error, "timed out")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "Notion", 10, "Notion"},
		{"exact", "Notion", 6, "Notion"},
		{"ascii cut", "Notion and Asana", 6, "Notion..."},
		{"multi-byte cut", "Café Notion", 4, "Café..."},
		{"emoji", strings.Repeat("🚀", 5), 3, "🚀🚀🚀..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
