package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sweeps-casino/internal/config"
	"sweeps-casino/internal/events"
	"sweeps-casino/internal/fairness"
	"sweeps-casino/internal/game"
	"sweeps-casino/internal/game/dice"
	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/logging"
	"sweeps-casino/internal/tournament"

	"github.com/pterm/pterm"
)

const maxRounds = 500

func main() {
	players := flag.Int("players", 6, "sit-and-go size")
	buyInGC := flag.Int64("buyin-gc", 1000, "buy-in in gold coins")
	buyInSC := flag.Int64("buyin-sc", 10, "buy-in in sweeps coins")
	clientSeed := flag.String("client-seed", "sim", "client seed prefix for every roll")
	logLevel := flag.String("log-level", "warn", "engine log level")
	flag.Parse()

	if *players < 2 {
		pterm.Error.Println("need at least two players")
		os.Exit(2)
	}
	if err := logging.Init(config.LogConfig{Level: *logLevel, Pretty: true}); err != nil {
		pterm.Error.Printfln("logging: %v", err)
		os.Exit(1)
	}
	pterm.DefaultHeader.WithFullWidth().Println("Sweeps Casino tournament simulator")

	sim, err := newSim(*players, ledger.Amount{GC: *buyInGC, SC: *buyInSC}, *clientSeed)
	if err != nil {
		pterm.Error.Printfln("setup: %v", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sim.run(ctx); err != nil {
		pterm.Error.Printfln("simulation: %v", err)
		os.Exit(1)
	}
}

type sim struct {
	sched      *tournament.Scheduler
	wallet     *ledger.Ledger
	chips      *ledger.Ledger
	bus        *events.Bus
	id         string
	size       int
	buyIn      ledger.Amount
	clientSeed string
	verified   int
	rolls      int
}

func newSim(size int, buyIn ledger.Amount, clientSeed string) (*sim, error) {
	wallet := ledger.New(nil)
	bus := events.NewBus(4096)
	sched, err := tournament.NewScheduler(wallet, tournament.Options{
		Publisher:   bus,
		SettleDelay: 0,
	})
	if err != nil {
		return nil, err
	}
	return &sim{
		sched:      sched,
		wallet:     wallet,
		chips:      ledger.New(nil),
		bus:        bus,
		size:       size,
		buyIn:      buyIn,
		clientSeed: clientSeed,
	}, nil
}

func (s *sim) run(ctx context.Context) error {
	s.bus.On(events.Wildcard, func(ev events.Event) {
		if ev.Event == tournament.EventPlayerRegistered {
			return
		}
		pterm.Debug.Printfln("event %s %s", ev.EventID, ev.Event)
	})

	if err := s.sched.StartSweeps(ctx); err != nil {
		return err
	}
	t, err := s.sched.Create(ctx, tournament.Config{
		Name:       "Simulated Sit & Go",
		GameType:   tournament.GamePoker,
		Type:       tournament.TypeSitAndGo,
		BuyIn:      s.buyIn,
		MinPlayers: 2,
		MaxPlayers: s.size,
	})
	if err != nil {
		return err
	}
	s.id = t.ID
	pterm.Info.Printfln("created %s (%s), %d seats", pterm.LightCyan(t.Name), t.ID, s.size)

	spinner, _ := pterm.DefaultSpinner.Start("Registering players ...")
	for i := 1; i <= s.size; i++ {
		p := game.Player{
			ID:      fmt.Sprintf("player-%02d", i),
			Name:    fmt.Sprintf("Player %d", i),
			Balance: ledger.Amount{GC: s.buyIn.GC * 3, SC: s.buyIn.SC * 3},
			IsBot:   true,
		}
		if res := s.sched.Register(ctx, s.id, p); !res.Success {
			spinner.Fail(res.Error)
			return fmt.Errorf("register %s: %s", p.ID, res.Error)
		}
	}
	spinner.Success("Table full")

	cur, _ := s.sched.Get(s.id)
	if cur.Status == tournament.StatusRegistering {
		if res := s.sched.Start(ctx, s.id); !res.Success {
			return fmt.Errorf("start: %s", res.Error)
		}
		cur, _ = s.sched.Get(s.id)
	}
	for _, p := range cur.Players {
		s.chips.EnsureAccount(p.ID, ledger.Amount{GC: p.Chips})
	}
	printPayouts(cur)

	for round := 1; round <= maxRounds; round++ {
		cur, _ = s.sched.Get(s.id)
		if cur.Status.Terminal() {
			break
		}
		if err := s.playRound(ctx, cur, round); err != nil {
			return err
		}
		if round%3 == 0 {
			if res := s.sched.AdvanceLevel(ctx, s.id); res.Success {
				b, _ := res.Tournament.CurrentBlind()
				pterm.Info.Printfln("level %d: blinds %d/%d", b.Level, b.SmallBlind, b.BigBlind)
			}
		}
	}

	cur, _ = s.sched.Get(s.id)
	if !cur.Status.Terminal() {
		if _, err := s.sched.Finish(ctx, s.id); err != nil {
			return err
		}
		cur, _ = s.sched.Get(s.id)
	}
	printResult(cur, s.wallet)
	pterm.Success.Printfln("%d of %d rolls verified against revealed seeds", s.verified, s.rolls)
	return nil
}

// playRound seats every surviving player at one dice game staking the big
// blind, then writes the chip counts back to the tournament.
func (s *sim) playRound(ctx context.Context, t *tournament.Tournament, round int) error {
	var alive []tournament.TournamentPlayer
	minStack := int64(-1)
	for _, p := range t.Players {
		if p.Eliminated {
			continue
		}
		alive = append(alive, p)
		if minStack < 0 || p.Chips < minStack {
			minStack = p.Chips
		}
	}
	if len(alive) < 2 {
		return nil
	}
	stake := minStack
	if b, ok := t.CurrentBlind(); ok && b.BigBlind < stake {
		stake = b.BigBlind
	}

	g, err := dice.New(game.Config{
		ID:         fmt.Sprintf("%s-r%d", s.id, round),
		MinPlayers: 2,
		MaxPlayers: len(alive),
	}, stake, ledger.GC, s.chips, s.bus)
	if err != nil {
		return err
	}
	for _, p := range alive {
		g.AddPlayer(game.Player{ID: p.ID, Name: p.Name})
	}
	if err := g.StartGame(ctx); err != nil {
		return err
	}
	seeds := map[string]string{}
	for _, p := range alive {
		seed := fmt.Sprintf("%s-%d-%s", s.clientSeed, round, p.ID)
		seeds[p.ID] = seed
		if _, err := g.ProcessAction(ctx, game.Action{PlayerID: p.ID, Type: dice.ActionRoll, ClientSeed: seed}); err != nil {
			return err
		}
	}
	state := g.GameState().(dice.State)
	reveal := g.RevealSeed()
	for _, r := range state.Rolls {
		s.rolls++
		if fairness.Verify(reveal.ServerSeed, reveal.Commitment, seeds[r.PlayerID], r.Nonce, dice.Faces, uint64(r.Face-1)) == nil {
			s.verified++
		}
	}
	pterm.Printfln("round %3d  stake %5d  winners %v", round, stake, state.Winners)

	for _, p := range alive {
		bal, err := s.chips.Balance(p.ID)
		if err != nil {
			return err
		}
		if bal.GC == 0 {
			res := s.sched.Eliminate(ctx, s.id, p.ID)
			if res.Success {
				pterm.Warning.Printfln("%s eliminated in round %d", p.Name, round)
			}
			continue
		}
		if res := s.sched.UpdateChips(ctx, s.id, p.ID, bal.GC); !res.Success && !res.NotFound {
			// The tournament may have finished on the last elimination.
			if cur, _ := s.sched.Get(s.id); cur != nil && cur.Status.Terminal() {
				return nil
			}
			return fmt.Errorf("update chips %s: %s", p.ID, res.Error)
		}
	}
	return nil
}
