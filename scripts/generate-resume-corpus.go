//go:build ignore

// Package main generates a synthetic resume corpus for load testing the
// candidate store.
// Usage: go run scripts/generate-resume-corpus.go -candidates 500 -output testdata/corpus
//
// It writes one NDJSON file per collection, ready for mongoimport:
//
//	mongoimport -d resume_search -c resumes_core   testdata/corpus/resumes_core.ndjson
//	mongoimport -d resume_search -c resume_skills  testdata/corpus/resume_skills.ndjson
//	mongoimport -d resume_search -c resume_chunks  testdata/corpus/resume_chunks.ndjson
//
// With -embeddings the chunk documents carry hash-based vectors from the
// static embedder, so vector retrieval returns results in clusters that
// have no model service. Leave it off when the indexing service will
// backfill real vectors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/hirepath/shortlist/internal/embed"
)

var (
	numCandidates = flag.Int("candidates", 500, "Number of candidates to generate")
	outputDir     = flag.String("output", "testdata/corpus", "Output directory")
	seed          = flag.Int64("seed", 42, "Random seed for reproducibility")
	embeddings    = flag.Bool("embeddings", true, "Attach hash-based embeddings to chunk documents")
)

// archetype describes one role template the generator samples from.
type archetype struct {
	title     string
	skills    []string
	summary   string
	narrative string
}

var archetypes = []archetype{
	{
		title:     "Backend Engineer",
		skills:    []string{"go", "postgresql", "kubernetes", "grpc", "docker", "redis"},
		summary:   "Backend engineer building %s services with %s.",
		narrative: "Designed and operated %s microservices backed by %s. Owned deploys, on-call, and capacity planning.",
	},
	{
		title:     "Machine Learning Engineer",
		skills:    []string{"python", "pytorch", "sql", "mlops", "airflow", "spark"},
		summary:   "Machine learning engineer shipping %s models built on %s.",
		narrative: "Trained and deployed %s models with %s, owning the feature pipeline and offline evaluation.",
	},
	{
		title:     "Frontend Engineer",
		skills:    []string{"react", "typescript", "nextjs", "css", "graphql", "playwright"},
		summary:   "Frontend engineer crafting %s interfaces with %s.",
		narrative: "Built %s product surfaces in %s with a focus on accessibility and performance budgets.",
	},
	{
		title:     "Site Reliability Engineer",
		skills:    []string{"kubernetes", "terraform", "aws", "prometheus", "python", "bash"},
		summary:   "SRE keeping %s platforms healthy with %s.",
		narrative: "Ran %s infrastructure as code with %s, automating runbooks and driving incident reviews.",
	},
	{
		title:     "Data Engineer",
		skills:    []string{"python", "sql", "kafka", "spark", "airflow", "dbt"},
		summary:   "Data engineer moving %s datasets through %s.",
		narrative: "Built %s ingestion and transformation pipelines on %s, cutting data freshness to minutes.",
	},
	{
		title:     "Mobile Engineer",
		skills:    []string{"kotlin", "swift", "react native", "graphql", "firebase"},
		summary:   "Mobile engineer delivering %s apps with %s.",
		narrative: "Shipped %s releases built on %s, holding crash-free sessions above 99.9 percent.",
	},
}

var (
	firstNames = []string{"Ava", "Noah", "Mia", "Liam", "Zara", "Ethan", "Ines", "Hugo", "Lena", "Omar", "Sofia", "Felix", "Nora", "Ivan", "Amara", "Jonas", "Yuki", "Diego", "Freya", "Ravi"}
	lastNames  = []string{"Okafor", "Lindqvist", "Moreau", "Tanaka", "Alvarez", "Novak", "Haddad", "Kowalski", "Mbeki", "Sorensen", "Rahman", "Costa", "Petrov", "Nilsen", "Duarte", "Iqbal", "Fischer", "Olsen", "Varga", "Mensah"}
	companies  = []string{"Lattice Systems", "Bluefin Labs", "Orbital Works", "Crestline", "Parallel Grid", "Harbor Analytics", "Northwind", "Vector Forge", "Saltbox", "Kitefall"}
	locations  = [][2]string{{"London", "United Kingdom"}, {"Berlin", "Germany"}, {"Lisbon", "Portugal"}, {"Toronto", "Canada"}, {"Austin", "United States"}, {"Amsterdam", "Netherlands"}, {"Stockholm", "Sweden"}, {"Warsaw", "Poland"}}
	adjectives = []string{"high-traffic", "multi-region", "consumer-facing", "real-time", "regulated", "large-scale"}
)

// profileDoc matches the resumes_core collection shape.
type profileDoc struct {
	ResumeID     string          `json:"resumeId"`
	PersonalInfo personalInfo    `json:"personal_info"`
	Summary      string          `json:"summary"`
	TotalYOE     float64         `json:"totalYOE"`
	Country      string          `json:"locationCountry"`
	City         string          `json:"locationCity"`
	Experience   []experienceDoc `json:"experience"`
}

type personalInfo struct {
	Name string `json:"name"`
}

type experienceDoc struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// skillDoc matches the resume_skills collection shape.
type skillDoc struct {
	ResumeID   string  `json:"resumeId"`
	Skill      string  `json:"skillCanonical"`
	Confidence float64 `json:"confidence"`
}

// chunkDoc matches the resume_chunks collection shape.
type chunkDoc struct {
	ChunkID   string    `json:"chunkId"`
	ResumeID  string    `json:"resumeId"`
	Section   string    `json:"sectionType"`
	Ordinal   int       `json:"sectionOrdinal"`
	Text      string    `json:"chunkText"`
	Embedding []float64 `json:"embedding,omitempty"`
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	embedder := embed.NewStaticEmbedder()

	profiles, err := newWriter("resumes_core.ndjson")
	if err != nil {
		return err
	}
	defer profiles.close()
	skillsOut, err := newWriter("resume_skills.ndjson")
	if err != nil {
		return err
	}
	defer skillsOut.close()
	chunks, err := newWriter("resume_chunks.ndjson")
	if err != nil {
		return err
	}
	defer chunks.close()

	for i := 0; i < *numCandidates; i++ {
		if err := writeCandidate(rng, embedder, i, profiles, skillsOut, chunks); err != nil {
			return err
		}
	}

	fmt.Printf("Generated %d candidates in %s\n", *numCandidates, *outputDir)
	return nil
}

func writeCandidate(rng *rand.Rand, embedder *embed.StaticEmbedder, i int, profiles, skillsOut, chunks *ndjsonWriter) error {
	arch := archetypes[rng.Intn(len(archetypes))]
	id := fmt.Sprintf("cand-%06d", i)
	name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	loc := locations[rng.Intn(len(locations))]
	yoe := float64(1 + rng.Intn(15))
	adjective := adjectives[rng.Intn(len(adjectives))]
	lead := arch.skills[0]
	stack := lead + " and " + arch.skills[arch.secondSkill(rng)]

	summary := fmt.Sprintf(arch.summary, adjective, stack)
	narrative := fmt.Sprintf(arch.narrative, adjective, stack)
	skillLine := joinSkills(arch.skills)

	if err := profiles.write(profileDoc{
		ResumeID:     id,
		PersonalInfo: personalInfo{Name: name},
		Summary:      summary,
		TotalYOE:     yoe,
		Country:      loc[1],
		City:         loc[0],
		Experience: []experienceDoc{
			{Title: arch.title, Company: companies[rng.Intn(len(companies))]},
			{Title: arch.title, Company: companies[rng.Intn(len(companies))]},
		},
	}); err != nil {
		return err
	}

	for _, skill := range arch.skills {
		if err := skillsOut.write(skillDoc{
			ResumeID:   id,
			Skill:      skill,
			Confidence: 0.6 + 0.4*rng.Float64(),
		}); err != nil {
			return err
		}
	}

	sections := []struct {
		name string
		text string
	}{
		{"summary", summary},
		{"experience", narrative},
		{"skills", skillLine},
	}
	for ordinal, section := range sections {
		doc := chunkDoc{
			ChunkID:  fmt.Sprintf("%s-%s-%d", id, section.name, ordinal),
			ResumeID: id,
			Section:  section.name,
			Ordinal:  ordinal,
			Text:     section.text,
		}
		if *embeddings {
			vec, err := embedder.Embed(context.Background(), section.text)
			if err != nil {
				return fmt.Errorf("embed chunk: %w", err)
			}
			doc.Embedding = vec
		}
		if err := chunks.write(doc); err != nil {
			return err
		}
	}
	return nil
}

// secondSkill picks a skill index distinct from the lead skill.
func (a archetype) secondSkill(rng *rand.Rand) int {
	return 1 + rng.Intn(len(a.skills)-1)
}

func joinSkills(skills []string) string {
	out := ""
	for i, s := range skills {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// ndjsonWriter writes one JSON document per line.
type ndjsonWriter struct {
	f   *os.File
	enc *json.Encoder
}

func newWriter(name string) (*ndjsonWriter, error) {
	f, err := os.Create(filepath.Join(*outputDir, name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return &ndjsonWriter{f: f, enc: json.NewEncoder(f)}, nil
}

func (w *ndjsonWriter) write(doc any) error {
	return w.enc.Encode(doc)
}

func (w *ndjsonWriter) close() {
	_ = w.f.Close()
}
