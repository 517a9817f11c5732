package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/xavierca1/traction-hub/internal/entity"
)

// demo pipeline for a fresh database
var demoLeads = []entity.Lead{
	{
		Name:            "Aether Biosciences",
		Type:            entity.LeadTypePaidPilot,
		Description:     "High-throughput screening integration for novel protein folding.",
		Stage:           5,
		StatusNote:      "Phase 1 data delivered. Client reviewing for Phase 2 expansion.",
		IsHighIntensity: true,
	},
	{
		Name:        "Novus Gen",
		Type:        entity.LeadTypeLOI,
		Description: "Exploratory partnership for membrane protein analysis.",
		Stage:       3,
		StatusNote:  "MTA under legal review. Expected signature by Friday.",
	},
	{
		Name:            "Helix Dynamics",
		Type:            entity.LeadTypePaidPilot,
		Description:     "Validation of biomarkers in synthetic serum.",
		Stage:           2,
		StatusNote:      "Samples received. Tech validation scheduled for next week.",
		IsHighIntensity: true,
	},
	{
		Name:        "Vertex Pharma",
		Type:        entity.LeadTypeLOI,
		Description: "Standard proteomics panel for Q3 clinical trials.",
		Stage:       1,
		StatusNote:  "Initial outreach made. Waiting for R&D lead response.",
	},
	{
		Name:            "Omega Synthesis",
		Type:            entity.LeadTypePaidPilot,
		Description:     "Custom assay development for enzyme stability.",
		Stage:           4,
		StatusNote:      "Contract signed. Kickoff meeting scheduled.",
		IsHighIntensity: true,
	},
	{
		Name:        "Chimera Labs",
		Type:        entity.LeadTypeLOI,
		Description: "Feasibility study for cryo-EM prep.",
		Stage:       6,
		StatusNote:  "Final report submitted. Awaiting conversion decision.",
	},
}

// SeedDemoLeads inserts the demo pipeline, but only into an empty table.
func SeedDemoLeads(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	repo := NewLeadRepository(db, "")
	for _, lead := range demoLeads {
		lead := lead
		if _, err := repo.CreateOrUpdate(ctx, &lead); err != nil {
			return err
		}
	}

	log.Printf("🌱 seeded %d demo leads", len(demoLeads))
	return nil
}
