package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"metroroute.org/internal/network"
	"metroroute.org/internal/routing"
	"metroroute.org/internal/transit"
)

func newInfoCmd(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show network totals and decoding warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(cmd, flags, func(manager *transit.Manager) error {
				return renderInfo(cmd.OutOrStdout(), manager.Snapshot())
			})
		},
	}
}

func renderInfo(w io.Writer, snap *transit.Snapshot) error {
	info := snap.Info()
	data := pterm.TableData{
		{"Property", "Value"},
		{"Source", snap.Dataset.Source},
		{"Format", string(snap.Dataset.Format)},
		{"Lines", strconv.Itoa(info.LineCount)},
		{"Stations", strconv.Itoa(info.StationCount)},
		{"Transfer stations", strconv.Itoa(info.TransferStationCount)},
		{"Edges", strconv.Itoa(snap.Graph.EdgeCount())},
		{"Transfer edges", strconv.Itoa(snap.Graph.TransferEdgeCount())},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render(); err != nil {
		return err
	}

	if len(snap.Dataset.Warnings) > 0 {
		pterm.Warning.WithWriter(w).Printfln("%d rows skipped", len(snap.Dataset.Warnings))
		for _, warning := range snap.Dataset.Warnings {
			_, _ = fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	return nil
}

func newStationsCmd(flags *sourceFlags) *cobra.Command {
	var line string

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List stations, optionally restricted to one line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(cmd, flags, func(manager *transit.Manager) error {
				stations, err := filterStations(manager.Snapshot(), line)
				if err != nil {
					return err
				}
				return renderStations(cmd.OutOrStdout(), stations)
			})
		},
	}
	cmd.Flags().StringVar(&line, "line", "", "line name or id")
	return cmd
}

// filterStations returns every station, or the stations of the named line in sequence order.
func filterStations(snap *transit.Snapshot, line string) ([]network.Station, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return snap.Dataset.Stations, nil
	}
	for _, l := range snap.Dataset.Lines {
		if l.ID == line || strings.EqualFold(l.Name, line) {
			return l.Stations, nil
		}
	}
	return nil, fmt.Errorf("line %q: %w", line, routing.ErrNotFound)
}

func renderStations(w io.Writer, stations []network.Station) error {
	data := pterm.TableData{{"ID", "Name", "Line", "Seq", "Lat", "Lon", "Transfer"}}
	for _, s := range stations {
		transfer := ""
		if s.Transfer {
			transfer = "yes"
		}
		data = append(data, []string{
			s.ID,
			s.Name,
			s.Line,
			strconv.Itoa(s.Sequence),
			strconv.FormatFloat(s.Lat, 'f', 6, 64),
			strconv.FormatFloat(s.Lon, 'f', 6, 64),
			transfer,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}

func newPlanCmd(flags *sourceFlags) *cobra.Command {
	var (
		from   string
		to     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the shortest route between two stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNetwork(cmd, flags, func(manager *transit.Manager) error {
				route, err := manager.PlanRoute(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				if asJSON {
					return writeRouteJSON(cmd.OutOrStdout(), route)
				}
				if !route.Found() {
					return fmt.Errorf("%s to %s: %w", from, to, routing.ErrNoRoute)
				}
				return renderRoute(cmd.OutOrStdout(), route)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start station id")
	cmd.Flags().StringVar(&to, "to", "", "destination station id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the route as JSON")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func renderRoute(w io.Writer, route routing.Route) error {
	pterm.Info.WithWriter(w).Printfln("%s -> %s: %.3f km, %d transfer(s)",
		route.From.Name, route.To.Name, route.TotalDistance, route.TransferCount)

	data := pterm.TableData{{"#", "Line", "From", "To", "Stations", "Distance (km)"}}
	for i, step := range route.Itinerary() {
		data = append(data, []string{
			strconv.Itoa(step.Index),
			step.Line,
			step.From,
			step.To,
			strconv.Itoa(step.StationCount),
			strconv.FormatFloat(route.Segments[i].Distance, 'f', 3, 64),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}

type routeJSON struct {
	Found         bool                    `json:"found"`
	From          string                  `json:"fromStationId"`
	To            string                  `json:"toStationId"`
	StationIDs    []string                `json:"stationIds"`
	TotalDistance float64                 `json:"totalDistance"`
	TransferCount int                     `json:"transferCount"`
	Itinerary     []routing.ItineraryStep `json:"itinerary"`
}

func writeRouteJSON(w io.Writer, route routing.Route) error {
	out := routeJSON{
		Found:         route.Found(),
		From:          route.From.ID,
		To:            route.To.ID,
		StationIDs:    make([]string, 0, len(route.Stations)),
		TotalDistance: route.TotalDistance,
		TransferCount: route.TransferCount,
		Itinerary:     route.Itinerary(),
	}
	for _, s := range route.Stations {
		out.StationIDs = append(out.StationIDs, s.ID)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func isNoRoute(err error) bool {
	return errors.Is(err, routing.ErrNoRoute)
}
