package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/parsers"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/processors"
)

const (
	ckTaxReport = "res_tax_report_user_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// ManualExchange tags ledger rows entered by hand rather than imported.
	ManualExchange = "manual"
)

// ValueHoldings prices every holding with a positive quantity. When the price
// lookup returns UnknownPrice the average cost stands in for the market
// price so the value is never shown as zero.
func ValueHoldings(ctx context.Context, holdings []models.Holding, prices PriceLookup) []models.HoldingValue {
	values := make([]models.HoldingValue, 0, len(holdings))
	for _, h := range holdings {
		if h.Amount <= 0 {
			continue
		}

		price := prices.GetPrice(ctx, h.Symbol)
		source := models.PriceFromMarket
		if price == UnknownPrice {
			price = h.AvgCost
			source = models.PriceFromCostBasis
		}

		v := models.HoldingValue{
			Symbol:       h.Symbol,
			Amount:       h.Amount,
			AvgCost:      h.AvgCost,
			CurrentPrice: price,
			PriceSource:  source,
			Value:        h.Amount * price,
			PnL:          (price - h.AvgCost) * h.Amount,
		}
		if h.AvgCost > 0 {
			v.PnLPercent = (price - h.AvgCost) / h.AvgCost * 100
		}
		values = append(values, v)
	}
	return values
}

// Summarize totals a set of valued holdings and measures it against goal.
func Summarize(values []models.HoldingValue, goal float64) models.PortfolioSummary {
	summary := models.PortfolioSummary{Holdings: values, NetWorthGoal: goal}
	if summary.Holdings == nil {
		summary.Holdings = []models.HoldingValue{}
	}
	for _, v := range values {
		summary.TotalValue += v.Value
		summary.TotalCost += v.AvgCost * v.Amount
	}
	summary.TotalPnL = summary.TotalValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.TotalPnLPercent = summary.TotalPnL / summary.TotalCost * 100
	}
	if goal > 0 {
		summary.GoalProgress = summary.TotalValue / goal * 100
	}
	return summary
}

// PortfolioOptions carries the defaults the service falls back to.
type PortfolioOptions struct {
	DefaultNetWorthGoal float64
	TaxRates            processors.TaxRates
}

// ImportResult counts the outcome of a CSV ledger import.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Symbols  []string `json:"symbols"`
}

type PortfolioService struct {
	holdings    HoldingsStore
	ledger      LedgerStore
	settings    SettingsStore
	prices      PriceLookup
	taxCalc     processors.TaxCalculator
	reportCache *cache.Cache
	opts        PortfolioOptions

	// generations counts ledger writes per user. A report is only cached if
	// no write happened while it was being computed.
	genMu       sync.Mutex
	generations map[string]uint64
}

func NewPortfolioService(
	holdings HoldingsStore,
	ledger LedgerStore,
	settings SettingsStore,
	prices PriceLookup,
	reportCache *cache.Cache,
	opts PortfolioOptions,
) *PortfolioService {
	if reportCache == nil {
		reportCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &PortfolioService{
		holdings:    holdings,
		ledger:      ledger,
		settings:    settings,
		prices:      prices,
		taxCalc:     processors.NewTaxLotProcessor(),
		reportCache: reportCache,
		opts:        opts,
		generations: make(map[string]uint64),
	}
}

// Dashboard values the user's holdings against the price cache.
func (s *PortfolioService) Dashboard(ctx context.Context, userID string) (models.PortfolioSummary, error) {
	holdings, err := s.holdings.GetHoldings(ctx, userID)
	if err != nil {
		return models.PortfolioSummary{}, fmt.Errorf("error retrieving holdings for user %s: %w", userID, err)
	}
	goal, err := s.NetWorthGoal(ctx, userID)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	return Summarize(ValueHoldings(ctx, holdings, s.prices), goal), nil
}

func (s *PortfolioService) UpsertHolding(ctx context.Context, userID, symbol string, amount, avgCost float64) (models.Holding, error) {
	h := models.Holding{
		UserID:    userID,
		Symbol:    NormalizeSymbol(symbol),
		Amount:    amount,
		AvgCost:   avgCost,
		UpdatedAt: time.Now().UTC(),
	}
	if err := validateHolding(h); err != nil {
		return models.Holding{}, err
	}
	if err := s.holdings.UpsertHolding(ctx, h); err != nil {
		return models.Holding{}, fmt.Errorf("error saving holding %s: %w", h.Symbol, err)
	}
	logger.FromContext(ctx).Info("Holding saved", "userID", userID, "symbol", h.Symbol, "amount", amount)
	return h, nil
}

func (s *PortfolioService) DeleteHolding(ctx context.Context, userID, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	return s.holdings.DeleteHolding(ctx, userID, symbol)
}

func (s *PortfolioService) ResetHoldings(ctx context.Context, userID string) error {
	if err := s.holdings.ResetHoldings(ctx, userID); err != nil {
		return fmt.Errorf("error resetting holdings for user %s: %w", userID, err)
	}
	logger.FromContext(ctx).Info("Holdings reset", "userID", userID)
	return nil
}

// AddTransaction appends a manually entered row to the ledger and refreshes
// the average cost of the matching holding.
func (s *PortfolioService) AddTransaction(ctx context.Context, userID string, tx models.Transaction) (models.Transaction, error) {
	tx.UserID = userID
	tx.Symbol = NormalizeSymbol(tx.Symbol)
	if tx.Exchange == "" {
		tx.Exchange = ManualExchange
	}
	if tx.TradeID == "" {
		tx.TradeID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	if err := validateTransaction(tx); err != nil {
		return models.Transaction{}, err
	}

	id, err := s.ledger.InsertTransaction(ctx, tx)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("error inserting transaction: %w", err)
	}
	tx.ID = id
	s.InvalidateUserCache(userID)

	if err := s.recalcAvgCost(ctx, userID, tx.Symbol); err != nil {
		return tx, err
	}
	logger.FromContext(ctx).Info("Transaction added", "userID", userID, "symbol", tx.Symbol, "type", tx.Side, "id", id)
	return tx, nil
}

// ImportTransactions parses a CSV export and upserts every row. Rows already
// present for the same exchange trade id are skipped.
func (s *PortfolioService) ImportTransactions(ctx context.Context, userID, source string, r io.Reader) (ImportResult, error) {
	parser, err := parsers.GetParser(source)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	txs, err := parser.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for i := range txs {
		txs[i].UserID = userID
		if err := validateTransaction(txs[i]); err != nil {
			return ImportResult{}, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	result := ImportResult{Symbols: []string{}}
	touched := make(map[string]bool)
	for _, tx := range txs {
		inserted, err := s.ledger.UpsertTransaction(ctx, tx)
		if err != nil {
			if result.Inserted > 0 {
				s.InvalidateUserCache(userID)
			}
			return result, fmt.Errorf("error importing transaction %s/%s: %w", tx.Exchange, tx.TradeID, err)
		}
		if !inserted {
			logger.FromContext(ctx).Debug("Skipping duplicate transaction on import", "userID", userID, "tradeID", tx.TradeID)
			result.Skipped++
			continue
		}
		result.Inserted++
		touched[tx.Symbol] = true
	}

	if result.Inserted > 0 {
		s.InvalidateUserCache(userID)
	}
	for sym := range touched {
		result.Symbols = append(result.Symbols, sym)
	}
	sort.Strings(result.Symbols)
	for _, sym := range result.Symbols {
		if err := s.recalcAvgCost(ctx, userID, sym); err != nil {
			return result, err
		}
	}

	logger.FromContext(ctx).Info("Ledger import finished", "userID", userID, "source", source, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func (s *PortfolioService) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving transactions for user %s: %w", userID, err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (s *PortfolioService) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	if err := s.ledger.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *PortfolioService) ClearTransactions(ctx context.Context, userID string) (int64, error) {
	n, err := s.ledger.ClearTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error clearing transactions for user %s: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	logger.FromContext(ctx).Info("Ledger cleared", "userID", userID, "rows", n)
	return n, nil
}

// TaxReport replays the whole ledger through the FIFO engine. Results are
// cached per user until the next ledger write.
func (s *PortfolioService) TaxReport(ctx context.Context, userID string) (models.TaxReport, error) {
	key := fmt.Sprintf(ckTaxReport, userID)
	if cached, found := s.reportCache.Get(key); found {
		logger.FromContext(ctx).Debug("Cache hit for tax report", "userID", userID)
		return cached.(models.TaxReport), nil
	}

	gen := s.generation(userID)
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return models.TaxReport{}, fmt.Errorf("error retrieving transactions for user %s: %w", userID, err)
	}

	realized, events := s.taxCalc.Calculate(txs)
	report := processors.SummarizeTaxEvents(realized, events, s.opts.TaxRates)

	s.genMu.Lock()
	if s.generations[userID] == gen {
		s.reportCache.Set(key, report, cache.DefaultExpiration)
	} else {
		logger.FromContext(ctx).Debug("Ledger changed during tax report, not caching", "userID", userID)
	}
	s.genMu.Unlock()
	logger.FromContext(ctx).Info("Tax report calculated", "userID", userID, "transactions", len(txs), "events", len(report.Events))
	return report, nil
}

// InvalidateUserCache drops every cached result for the user.
func (s *PortfolioService) InvalidateUserCache(userID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
	s.reportCache.Delete(fmt.Sprintf(ckTaxReport, userID))
}

func (s *PortfolioService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

func (s *PortfolioService) NetWorthGoal(ctx context.Context, userID string) (float64, error) {
	goal, ok, err := s.settings.GetNetWorthGoal(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error retrieving net worth goal for user %s: %w", userID, err)
	}
	if !ok {
		return s.opts.DefaultNetWorthGoal, nil
	}
	return goal, nil
}

func (s *PortfolioService) SetNetWorthGoal(ctx context.Context, userID string, goal float64) error {
	if !isFinite(goal) || goal <= 0 {
		return fmt.Errorf("%w: goal must be positive", ErrInvalidInput)
	}
	return s.settings.UpsertNetWorthGoal(ctx, userID, goal)
}

func (s *PortfolioService) recalcAvgCost(ctx context.Context, userID, symbol string) error {
	buys, err := s.ledger.ListBuys(ctx, userID, symbol)
	if err != nil {
		return fmt.Errorf("error retrieving buys for %s: %w", symbol, err)
	}
	avg, ok := processors.AverageCost(buys)
	if !ok {
		return nil
	}
	updated, err := s.holdings.UpdateAvgCost(ctx, userID, symbol, avg)
	if err != nil {
		return fmt.Errorf("error updating average cost for %s: %w", symbol, err)
	}
	if updated {
		logger.FromContext(ctx).Debug("Average cost recalculated", "userID", userID, "symbol", symbol, "avgCost", avg)
	}
	return nil
}

func validateHolding(h models.Holding) error {
	switch {
	case h.Symbol == "":
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	case !isFinite(h.Amount) || h.Amount < 0:
		return fmt.Errorf("%w: amount must be zero or positive", ErrInvalidInput)
	case !isFinite(h.AvgCost) || h.AvgCost < 0:
		return fmt.Errorf("%w: average cost must be zero or positive", ErrInvalidInput)
	}
	return nil
}

func validateTransaction(tx models.Transaction) error {
	var problems []string
	if tx.Symbol == "" {
		problems = append(problems, "symbol is required")
	}
	if tx.Side != models.SideBuy && tx.Side != models.SideSell {
		problems = append(problems, fmt.Sprintf("unknown type %q", tx.Side))
	}
	if !isFinite(tx.Quantity) || tx.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if !isFinite(tx.Price) || tx.Price < 0 {
		problems = append(problems, "price must be zero or positive")
	}
	if !isFinite(tx.Fee) || tx.Fee < 0 {
		problems = append(problems, "fee must be zero or positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
