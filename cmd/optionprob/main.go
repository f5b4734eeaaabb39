package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/driver"
	"github.com/contactkeval/optionprob/internal/events"
	"github.com/contactkeval/optionprob/internal/listener"
	"github.com/contactkeval/optionprob/internal/logger"
	"github.com/contactkeval/optionprob/internal/notifier"
	"github.com/contactkeval/optionprob/internal/secrets"
	"github.com/contactkeval/optionprob/internal/store"
)

func main() {
	ticker := flag.String("ticker", "NVDA", "underlying ticker symbol, e.g. AAPL")
	strike := flag.Float64("strike", -1, "strike price to estimate P(S_T > strike) for; omit to run every tracked strike")
	days := flag.Int("days", 30, "days from today to the expiry date to estimate")
	listenSeconds := flag.Int("listen-seconds", 30, "how long to collect live quotes before estimating")
	verbosity := flag.Int("v", 2, "log verbosity: 0=error 1=warn 2=info 3=debug 4=trace")
	flag.Parse()

	logger.SetVerbosity(*verbosity)

	if !domain.IsSymbol(*ticker) {
		logger.Errorf("unrecognized ticker: %s", *ticker)
		os.Exit(2)
	}

	secrets.LoadDotenv()
	apiKey, err := secrets.LoadRequired("MASSIVE_API_KEY", "MASSIVE_API_KEY is required to subscribe to live option quotes")
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	discord := notifier.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbol := domain.Symbol(*ticker)
	s := store.New()

	expiryDate, err := nearestExpiry(*days)
	if err != nil {
		logger.Errorf("resolving expiry: %v", err)
		os.Exit(1)
	}

	l := listener.New(apiKey, s)

	listenCtx, stopListen := context.WithTimeout(ctx, time.Duration(*listenSeconds)*time.Second)
	defer stopListen()

	go func() {
		if err := l.Run(listenCtx, *ticker, expiryDate); err != nil {
			logger.Errorf("listener stopped: %v", err)
		}
	}()

	logger.Infof("collecting live quotes for %s expiring %s for %ds", *ticker, expiryDate.Format("2006-01-02"), *listenSeconds)
	<-listenCtx.Done()

	eventStore := events.NewEventStore()
	if _, err := eventStore.Refresh(ctx); err != nil {
		logger.Debugf("prediction market prefetch failed: %v", err)
	}

	drv := driver.New(s, eventStore, driver.Options{})

	strikes := []float64{*strike}
	if *strike < 0 {
		strikes = s.GetStrikes(symbol)
		if len(strikes) == 0 {
			logger.Errorf("no strikes tracked for %s expiring %s", *ticker, expiryDate.Format("2006-01-02"))
			os.Exit(1)
		}
	}

	var anyFailed bool
	for _, k := range strikes {
		result, err := drv.RunExpiry(ctx, symbol, expiryDate, k)
		if err != nil {
			discord.Errorf("probability run failed", "%s strike=%.2f: %v", *ticker, k, err)
			logger.Errorf("run failed for strike %.2f: %v", k, err)
			anyFailed = true
			continue
		}
		printResult(result)
		discord.Successf("probability estimate ready", "%s strike=%.2f confidence=%.2f", *ticker, k, result.Confidence)
	}

	if anyFailed {
		os.Exit(1)
	}
}

func nearestExpiry(days int) (time.Time, error) {
	target := time.Now().UTC().AddDate(0, 0, days)
	return domain.MakeExpiryDatetime(target.Format("2006-01-02"))
}

func printResult(result driver.Result) {
	fmt.Printf("%s %s strike=%.2f forward=%.4f confidence=%.2f\n", result.Symbol, result.ExpirationDate.Format("2006-01-02"), result.StrikePrice, result.Forward, result.Confidence)
	for _, p := range result.Predictions {
		if math.IsNaN(p.ProbAbove) {
			fmt.Printf("  %-10s insufficient data\n", p.ModelName)
			continue
		}
		fmt.Printf("  %-10s P(above)=%.4f\n", p.ModelName, p.ProbAbove)
	}
	if result.HasPolymarket {
		fmt.Printf("  %-10s P(above)=%.4f\n", "polymarket", result.PolymarketProb)
	}
}
