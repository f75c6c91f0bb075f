package console

import (
	"context"

	"github.com/stone-age-io/asset-collector/internal/inventory"
	"github.com/stone-age-io/asset-collector/internal/network"
)

// EditMonitors replaces the detected monitors with the operator's own list.
// A blank model ends the loop, as does any answer but Y to "add another".
func EditMonitors(ctx context.Context, p *Prompter) ([]inventory.Monitor, error) {
	monitors := []inventory.Monitor{}

	for {
		p.Println("\n--- Add monitor ---")
		model, err := p.Ask(ctx, "Monitor model (leave blank to finish): ")
		if err != nil {
			return nil, err
		}
		if model == "" {
			return monitors, nil
		}

		size, err := p.Ask(ctx, `Monitor size (e.g. 24"): `)
		if err != nil {
			return nil, err
		}
		resolution, err := p.Ask(ctx, "Monitor resolution (e.g. 1920x1080): ")
		if err != nil {
			return nil, err
		}
		manufacturer, err := p.Ask(ctx, "Monitor manufacturer: ")
		if err != nil {
			return nil, err
		}

		monitors = append(monitors, inventory.Monitor{
			Model:        model,
			Size:         size,
			Resolution:   resolution,
			Manufacturer: manufacturer,
		})
		p.Printf("Added monitor: %s\n", model)

		another, err := p.Confirm(ctx, "\nAdd another monitor? (Y/N): ")
		if err != nil {
			return nil, err
		}
		if !another {
			return monitors, nil
		}
	}
}

// PrintMonitors lists the automatically detected monitors
func PrintMonitors(p *Prompter, monitors []inventory.Monitor) {
	if len(monitors) == 0 {
		p.Println("\nNo monitors were detected automatically")
		return
	}

	p.Println("\nDetected monitors:")
	for i, m := range monitors {
		p.Printf("[%d] %s %s\n", i+1, m.Model, m.Resolution)
	}
}

// PrintRecommendations shows the addresses the operator can give to the server
func PrintRecommendations(p *Prompter, list network.RecommendationList) {
	p.Println("\nThis machine can be reached as:")
	for _, addr := range list {
		p.Printf("  - %s\n", addr)
	}
}

// PrintSummary is shown after a successful upload
func PrintSummary(p *Prompter, rec *inventory.AssetRecord, serverURL string) {
	p.Println()
	p.Success("Asset information uploaded")
	p.Println("\nAsset summary:")
	p.Printf("- Name: %s\n", rec.Name)
	p.Printf("- CPU: %s\n", rec.CPU.Model)
	p.Printf("- Memory: %s\n", rec.Memory.Total)
	p.Printf("- OS: %s\n", rec.OS.Name)
	p.Printf("- Monitors: %d\n", len(rec.Monitors))
	p.Println("\nThe full record is available in the asset management interface:")
	p.Printf("   %s\n", serverURL)
}

// PrintUploadRejected reports a non-201 answer with the server's message
func PrintUploadRejected(p *Prompter, code int, body string) {
	p.Println()
	p.Failure("Upload failed: HTTP %d", code)
	p.Printf("Error message: %s\n", body)
}

// PrintConnectionHints is shown when the upload could not reach the server
func PrintConnectionHints(p *Prompter) {
	p.Println()
	p.Failure("Could not connect to the server. Check the address and that the server is running")
	p.Println("\nPossible causes:")
	p.Println("1. The server is not running")
	p.Println("2. The server address is wrong")
	p.Println("3. A firewall is blocking the connection")
	p.Println("4. The network is down")
}
