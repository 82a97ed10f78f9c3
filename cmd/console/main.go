package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"triage/domain/triage"
	"triage/infra/sequence"
)

// Interactive menu shell over the triage engine. Pure presentation:
// it parses raw input, defaults malformed severity to 3 and renders
// results; every rule lives in the engine.

func main() {
	engine := triage.NewEngine(sequence.New(0))
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("=== Emergency Room Triage ===")
	seed(engine)

	for {
		printMenu()
		switch readLine(in) {
		case "1":
			register(engine, in)
		case "2":
			showNext(engine)
		case "3":
			serve(engine)
		case "4":
			showCounts(engine)
		case "5":
			listWaiting(engine)
		case "6":
			undo(engine)
		case "7":
			report(engine)
		case "0":
			fmt.Println("Bye.")
			return
		default:
			fmt.Println("Invalid option.")
		}
		fmt.Println()
	}
}

func printMenu() {
	fmt.Println("1) Register patient")
	fmt.Println("2) Next patient")
	fmt.Println("3) Serve patient")
	fmt.Println("4) Counts by severity")
	fmt.Println("5) List waiting room")
	fmt.Println("6) Undo last service")
	fmt.Println("7) Full report")
	fmt.Println("0) Quit")
	fmt.Print("> ")
}

func readLine(in *bufio.Scanner) string {
	if !in.Scan() {
		return "0"
	}
	return strings.TrimSpace(in.Text())
}

func register(engine *triage.Engine, in *bufio.Scanner) {
	fmt.Print("Name: ")
	name := readLine(in)

	fmt.Print("Severity (1=Critical, 2=Urgent, 3=Non-urgent): ")
	severity, err := strconv.Atoi(readLine(in))
	if err != nil {
		fmt.Println("Unparsable severity, defaulting to 3 (Non-urgent).")
		severity = 3
	}

	fmt.Print("Symptoms: ")
	note := readLine(in)

	p, err := engine.Register(name, triage.Severity(severity), note)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("Registered:", p)
}

func showNext(engine *triage.Engine) {
	p := engine.PeekNext()
	if p == nil {
		fmt.Println("No patients waiting.")
		return
	}
	fmt.Println("Next:", p)
}

func serve(engine *triage.Engine) {
	p := engine.Serve()
	if p == nil {
		fmt.Println("No patients to serve.")
		return
	}
	fmt.Println("Served:", p)
}

func undo(engine *triage.Engine) {
	p := engine.UndoLastServe()
	if p == nil {
		fmt.Println("Nothing to undo.")
		return
	}
	fmt.Println("Undone, back in waiting room:", p)
}

func showCounts(engine *triage.Engine) {
	counts := engine.Counts()
	total := 0
	for _, sev := range []triage.Severity{triage.Critical, triage.Urgent, triage.NonUrgent} {
		fmt.Printf("  %-10s %d\n", sev, counts[sev])
		total += counts[sev]
	}
	fmt.Printf("  %-10s %d\n", "TOTAL", total)
}

func listWaiting(engine *triage.Engine) {
	waiting := engine.WaitingSnapshot()
	if len(waiting) == 0 {
		fmt.Println("Waiting room is empty.")
		return
	}
	for i, p := range waiting {
		fmt.Printf("%d. %s\n", i+1, p)
	}
}

func report(engine *triage.Engine) {
	served := engine.ServedHistory()
	fmt.Printf("--- Served: %d ---\n", len(served))
	for _, p := range served {
		fmt.Println(" ", p)
	}

	waiting := engine.WaitingSnapshot()
	fmt.Printf("--- Waiting: %d ---\n", len(waiting))
	for _, p := range waiting {
		fmt.Println(" ", p)
	}

	showCounts(engine)
}

func seed(engine *triage.Engine) {
	fmt.Println("Seeding example patients...")
	examples := []struct {
		name     string
		severity triage.Severity
		note     string
	}{
		{"Carlos Mendez", triage.Urgent, "Severe abdominal pain"},
		{"Ana Garcia", triage.Critical, "Cardiac arrest"},
		{"Luis Rodriguez", triage.NonUrgent, "Common cold"},
		{"Maria Lopez", triage.Critical, "Severe head trauma"},
		{"Pedro Sanchez", triage.Urgent, "Broken arm"},
		{"Sofia Torres", triage.NonUrgent, "Routine check"},
	}
	for _, ex := range examples {
		if _, err := engine.Register(ex.name, ex.severity, ex.note); err != nil {
			fmt.Println("seed failed:", err)
		}
	}
	fmt.Println()
}
