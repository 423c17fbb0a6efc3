package main

import (
	"fmt"
	"strconv"
	"time"

	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/tournament"

	"github.com/pterm/pterm"
)

func printPayouts(t *tournament.Tournament) {
	data := pterm.TableData{{"Place", "Percent", "Amount"}}
	for _, p := range t.Payouts {
		data = append(data, []string{
			strconv.Itoa(p.Position),
			p.Percentage.StringFixed(2) + "%",
			strconv.FormatInt(p.Amount, 10),
		})
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(2)
	pterm.Info.Printfln("prize pool %d GC / %d SC", t.PrizePool.GC, t.PrizePool.SC)
	table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	pbox.WithTitle(pterm.LightYellow("|PAYOUTS|")).WithTitleTopCenter().Println(table)
}

func printResult(t *tournament.Tournament, wallet *ledger.Ledger) {
	if t.Result == nil {
		pterm.Warning.Printfln("tournament ended as %s without a result", t.Status)
		return
	}
	paid := map[string]tournament.PlayerPayout{}
	for _, p := range t.Result.Payouts {
		paid[p.PlayerID] = p
	}
	data := pterm.TableData{{"Pos", "Player", "Prize GC", "Prize SC", "Wallet GC", "Wallet SC"}}
	for _, p := range t.Result.Standings {
		bal, _ := wallet.Balance(p.ID)
		prize := paid[p.ID]
		data = append(data, []string{
			strconv.Itoa(p.Position),
			p.Name,
			strconv.FormatInt(prize.GC, 10),
			strconv.FormatInt(prize.SC, 10),
			strconv.FormatInt(bal.GC, 10),
			strconv.FormatInt(bal.SC, 10),
		})
	}
	table, _ := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	pterm.DefaultBox.
		WithTitle(pterm.LightGreen(fmt.Sprintf("|%s|", t.Name))).
		WithTitleTopCenter().
		Println(table)
	pterm.Info.Printfln("finished in %s with %d players", t.Result.Duration.Round(time.Millisecond), t.Result.TotalPlayers)
}
