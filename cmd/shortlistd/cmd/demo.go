package cmd

import (
	"context"
	"fmt"

	"github.com/hirepath/shortlist/internal/embed"
	"github.com/hirepath/shortlist/internal/store"
)

// demoChunk is one resume section for a seeded candidate.
type demoChunk struct {
	section string
	text    string
}

// demoCandidate is one seed resume for demo mode.
type demoCandidate struct {
	id      string
	profile store.Profile
	skills  map[string]float64
	chunks  []demoChunk
}

// demoCandidates returns a small cross-discipline candidate set
// covering backend, streaming, ML, frontend, and platform roles, so
// most demo queries find someone.
func demoCandidates() []demoCandidate {
	return []demoCandidate{
		{
			id: "cand-demo-1",
			profile: store.Profile{
				Name:            "Priya Nair",
				Summary:         "Backend engineer focused on Go services, gRPC APIs, and PostgreSQL data models.",
				TotalYOE:        8,
				LocationCountry: "United Kingdom",
				LocationCity:    "London",
				Experience: []store.ExperienceEntry{
					{Title: "Senior Backend Engineer", Company: "Finch Labs"},
					{Title: "Backend Engineer", Company: "Moneybox"},
				},
			},
			skills: map[string]float64{
				"go": 0.95, "kubernetes": 0.9, "postgresql": 0.85,
				"grpc": 0.8, "docker": 0.8,
			},
			chunks: []demoChunk{
				{"summary", "Senior backend engineer with eight years building Go services. Led the payments platform rewrite at Finch Labs, cutting p99 latency from 900ms to 120ms."},
				{"experience", "Designed and operated gRPC microservices on Kubernetes with PostgreSQL and Redis. Owned the on-call rotation and brought error budgets under control."},
				{"skills", "Go, gRPC, PostgreSQL, Kubernetes, Docker, Redis, Terraform basics."},
			},
		},
		{
			id: "cand-demo-2",
			profile: store.Profile{
				Name:            "Marcus Webb",
				Summary:         "Platform engineer specialising in event streaming and infrastructure as code.",
				TotalYOE:        6,
				LocationCountry: "United States",
				LocationCity:    "Austin",
				Experience: []store.ExperienceEntry{
					{Title: "Platform Engineer", Company: "Streamline"},
					{Title: "Software Engineer", Company: "Indeed"},
				},
			},
			skills: map[string]float64{
				"go": 0.85, "kafka": 0.9, "terraform": 0.75, "aws": 0.8,
			},
			chunks: []demoChunk{
				{"summary", "Platform engineer running Kafka clusters that move two billion events a day. Comfortable owning infrastructure end to end with Terraform on AWS."},
				{"experience", "Built a Go change-data-capture service feeding Kafka topics into the data warehouse. Migrated batch ETL jobs to streaming, cutting data freshness from hours to minutes."},
				{"skills", "Go, Apache Kafka, AWS, Terraform, Docker, Python scripting."},
			},
		},
		{
			id: "cand-demo-3",
			profile: store.Profile{
				Name:            "Elena Rossi",
				Summary:         "Machine learning engineer shipping ranking and recommendation models to production.",
				TotalYOE:        5,
				LocationCountry: "Italy",
				LocationCity:    "Milan",
				Experience: []store.ExperienceEntry{
					{Title: "Machine Learning Engineer", Company: "DataForge"},
					{Title: "Data Scientist", Company: "YOOX"},
				},
			},
			skills: map[string]float64{
				"python": 0.95, "pytorch": 0.9, "sql": 0.7, "mlops": 0.7,
			},
			chunks: []demoChunk{
				{"summary", "Machine learning engineer with five years taking models from notebook to production. Shipped the product ranking model serving forty million requests a day."},
				{"experience", "Trained and deployed PyTorch ranking models behind a Python inference service. Built the feature store and offline evaluation harness used by the whole ML team."},
				{"skills", "Python, PyTorch, scikit-learn, SQL, Airflow, MLflow."},
			},
		},
		{
			id: "cand-demo-4",
			profile: store.Profile{
				Name:            "Tomás Silva",
				Summary:         "Frontend engineer building accessible React applications with TypeScript.",
				TotalYOE:        4,
				LocationCountry: "Portugal",
				LocationCity:    "Lisbon",
				Experience: []store.ExperienceEntry{
					{Title: "Frontend Engineer", Company: "Brightly"},
					{Title: "Web Developer", Company: "Farfetch"},
				},
			},
			skills: map[string]float64{
				"react": 0.9, "typescript": 0.9, "nextjs": 0.8, "css": 0.7,
			},
			chunks: []demoChunk{
				{"summary", "Frontend engineer who cares about accessibility and performance. Took the checkout flow to a 98 Lighthouse score while shipping weekly."},
				{"experience", "Rebuilt the design system in React and TypeScript, adopted across four product teams. Introduced Next.js server rendering for the marketing site."},
				{"skills", "React, TypeScript, Next.js, CSS, Playwright, GraphQL."},
			},
		},
		{
			id: "cand-demo-5",
			profile: store.Profile{
				Name:            "Aisha Khan",
				Summary:         "Site reliability engineer keeping multi-region Kubernetes platforms healthy.",
				TotalYOE:        7,
				LocationCountry: "Canada",
				LocationCity:    "Toronto",
				Experience: []store.ExperienceEntry{
					{Title: "Site Reliability Engineer", Company: "Northbeam"},
					{Title: "DevOps Engineer", Company: "Shopify"},
				},
			},
			skills: map[string]float64{
				"kubernetes": 0.9, "aws": 0.85, "terraform": 0.9,
				"prometheus": 0.8, "python": 0.6,
			},
			chunks: []demoChunk{
				{"summary", "SRE with seven years running production Kubernetes across three AWS regions. Drove incident response maturity from ad hoc to a practiced discipline."},
				{"experience", "Owned the Terraform estate and the Prometheus and Grafana observability stack. Cut mean time to recovery in half by automating the most common runbooks."},
				{"skills", "Kubernetes, AWS, Terraform, Prometheus, Grafana, Python, Bash."},
			},
		},
	}
}

// seedDemoStore builds an in-memory store from the demo candidate set,
// embedding every chunk with the given embedder so vector retrieval
// searches the same space the queries are embedded into.
func seedDemoStore(ctx context.Context, embedder embed.Embedder) (*store.MemoryStore, error) {
	st := store.NewMemoryStore()
	for _, cand := range demoCandidates() {
		profile := cand.profile
		profile.CandidateID = cand.id
		st.AddProfile(&profile)

		for skill, confidence := range cand.skills {
			st.AddSkill(cand.id, skill, confidence)
		}

		for i, chunk := range cand.chunks {
			vec, err := embedder.Embed(ctx, chunk.text)
			if err != nil {
				return nil, fmt.Errorf("embed demo chunk: %w", err)
			}
			st.AddChunk(&store.Chunk{
				ChunkID:        fmt.Sprintf("%s-%s-%d", cand.id, chunk.section, i),
				CandidateID:    cand.id,
				SectionType:    chunk.section,
				SectionOrdinal: i,
				Text:           chunk.text,
				Embedding:      vec,
			})
		}
	}
	return st, nil
}
