package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/aircast-dev/aircast/internal/api"
)

var version = "0.1.0-dev"

const defaultAddr = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		cmd := flag.NewFlagSet("generate", flag.ExitOnError)
		addr := cmd.String("addr", defaultAddr, "Daemon address")
		station := cmd.String("station", "", "Station id (daemon default when empty)")
		minutes := cmd.Int("minutes", 0, "Target duration in minutes (daypart default when 0)")
		profile := cmd.String("profile", "", "Content profile override")
		cmd.Parse(os.Args[2:])
		exitOn(runGenerate(*addr, *station, *minutes, *profile))
	case "runs":
		cmd := flag.NewFlagSet("runs", flag.ExitOnError)
		addr := cmd.String("addr", defaultAddr, "Daemon address")
		limit := cmd.Int("limit", 20, "Maximum number of runs to list")
		station := cmd.String("station", "", "Filter by station id")
		cmd.Parse(os.Args[2:])
		exitOn(runList(*addr, *limit, *station))
	case "stations":
		cmd := flag.NewFlagSet("stations", flag.ExitOnError)
		addr := cmd.String("addr", defaultAddr, "Daemon address")
		cmd.Parse(os.Args[2:])
		exitOn(runStations(*addr))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: aircast <generate|runs|stations|version> [flags]")
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGenerate(addr, station string, minutes int, profile string) error {
	payload, err := json.Marshal(api.TriggerRequest{
		StationID:             station,
		TargetDurationMinutes: minutes,
		ProfileOverride:       profile,
	})
	if err != nil {
		return err
	}

	// Script, voice, and assembly together can take several minutes.
	client := &http.Client{Timeout: 15 * time.Minute}
	resp, err := client.Post(addr+"/api/v1/broadcasts", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}

	var res api.BroadcastResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("broadcast %s %s\n", res.StreamID, res.Status)
	fmt.Printf("  station:  %s\n", res.Station)
	fmt.Printf("  audio:    %s%s\n", addr, res.AudioURL)
	if res.CoverURL != "" {
		fmt.Printf("  cover:    %s%s\n", addr, res.CoverURL)
	}
	fmt.Printf("  duration: %.1fs across %d segments\n", res.TotalDurationSeconds, res.SegmentCount)
	fmt.Printf("  quality:  %.2f\n", res.QualityScore)
	return nil
}

func runList(addr string, limit int, station string) error {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if station != "" {
		query.Set("station_id", station)
	}

	var res api.RunListResponse
	if err := getJSON(addr+"/api/v1/broadcasts?"+query.Encode(), &res); err != nil {
		return err
	}

	if len(res.Runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, run := range res.Runs {
		line := fmt.Sprintf("%s  %-12s %-14s %s", run.CreatedAt, run.StationID, run.Status, run.RunID)
		if run.Status == "published" {
			line += fmt.Sprintf("  %.0fs q=%.2f", run.DurationSeconds, run.QualityScore)
		}
		if run.ErrorCode != "" {
			line += "  " + run.ErrorCode
		}
		fmt.Println(line)
	}
	return nil
}

func runStations(addr string) error {
	var res api.StationListResponse
	if err := getJSON(addr+"/api/v1/stations", &res); err != nil {
		return err
	}

	for _, st := range res.Stations {
		fmt.Printf("%-14s %s\n", st.ID, st.DisplayName)
		fmt.Printf("               tone: %s, energy: %s\n", st.Tone, st.Energy)
		mix := ""
		for i, share := range st.ProfileMix {
			if i > 0 {
				mix += ", "
			}
			mix += fmt.Sprintf("%s %d%%", share.Category, share.Percent)
		}
		fmt.Printf("               %s: %s\n", st.Profile, mix)
	}
	return nil
}

func getJSON(rawURL string, out any) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var apiErr api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.ErrorCode == "" {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if apiErr.RetryPossible {
		return fmt.Errorf("%s: %s (retry possible)", apiErr.ErrorCode, apiErr.Message)
	}
	return fmt.Errorf("%s: %s", apiErr.ErrorCode, apiErr.Message)
}
