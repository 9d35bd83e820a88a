package selector

import (
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/entities"
)

func TestSelectAgentPrefersHigherScore(t *testing.T) {
	coder := entities.NewAgent("coder", "coding", "implementation", "debugging")
	generalist := entities.NewAgent("generalist", "coding")

	task := entities.Task{TaskID: "t1", Description: "coding implementation debugging task", Priority: 1}

	agent, err := SelectAgent([]entities.Agent{generalist, coder}, task)
	if err != nil {
		t.Fatalf("SelectAgent returned error: %v", err)
	}
	if agent.Role != "coder" {
		t.Fatalf("expected coder to be selected, got %s", agent.Role)
	}
}

func TestSelectAgentNoneCanHandle(t *testing.T) {
	writer := entities.NewAgent("writer", "documentation")
	task := entities.Task{TaskID: "t2", Description: "zzz qqq xyzzy plugh", Priority: 1}

	if _, err := SelectAgent([]entities.Agent{writer}, task); err == nil {
		t.Fatal("expected an error when no agent can handle the task")
	}
}

func TestClassifyDomainKeywordMatch(t *testing.T) {
	cases := []struct {
		description string
		want        Domain
	}{
		{"write unit tests with mock fixtures", DomainTesting},
		{"deploy the docker pipeline to kubernetes", DomainDevOps},
		{"investigate and research the new approach", DomainResearch},
		{"write the readme guide", DomainDocumentation},
		{"review for security vulnerability exploits", DomainSecurity},
		{"optimize latency and throughput", DomainPerformance},
		{"something with no matching keyword at all", DomainGeneral},
	}
	for _, tc := range cases {
		got := ClassifyDomain(entities.Task{Description: tc.description})
		if got != tc.want {
			t.Errorf("ClassifyDomain(%q) = %s, want %s", tc.description, got, tc.want)
		}
	}
}

func TestTeamRouterOverridesAndFallback(t *testing.T) {
	backendLead := entities.NewAgent("backend-lead", "backend", "api")
	backend := entities.NewAgentTeam("Backend", "backend", []entities.Agent{backendLead}, &backendLead, entities.TierDomainLead, nil)

	researchLead := entities.NewAgent("research-lead", "research")
	research := entities.NewAgentTeam("Research", "research", []entities.Agent{researchLead}, &researchLead, entities.TierDomainLead, nil)

	orchLead := entities.NewAgent("orchestrator", "general")
	orchestration := entities.NewAgentTeam("Orchestration", "general", []entities.Agent{orchLead}, &orchLead, entities.TierOrchestration, nil)

	router := NewTeamRouter([]*entities.AgentTeam{backend, research, orchestration})

	// Security classifies to DomainSecurity, overridden to the Backend team.
	agent, err := router.Route(entities.Task{TaskID: "t3", Description: "fix the auth vulnerability", Priority: 1})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if agent.Role != "backend-lead" {
		t.Fatalf("expected backend-lead via security override, got %s", agent.Role)
	}

	// Documentation overrides to Research.
	agent, err = router.Route(entities.Task{TaskID: "t4", Description: "write the readme guide", Priority: 1})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if agent.Role != "research-lead" {
		t.Fatalf("expected research-lead via documentation override, got %s", agent.Role)
	}

	// General falls through to Orchestration.
	agent, err = router.Route(entities.Task{TaskID: "t5", Description: "figure out what to do next", Priority: 1})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if agent.Role != "orchestrator" {
		t.Fatalf("expected orchestrator for general domain, got %s", agent.Role)
	}
}

func TestTeamRouterFirstCanHandleFallback(t *testing.T) {
	frontendLead := entities.NewAgent("frontend-lead", "frontend", "react")
	// Domain field deliberately does not match "frontend" and there is
	// no Orchestration team, so resolveTeam must fall through all the
	// way to "first team whose agent can handle the task."
	frontend := entities.NewAgentTeam("Frontend", "ui-team", []entities.Agent{frontendLead}, &frontendLead, entities.TierDomainLead, nil)

	router := NewTeamRouter([]*entities.AgentTeam{frontend})

	agent, err := router.Route(entities.Task{TaskID: "t6", Description: "build a react component", Priority: 1})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if agent.Role != "frontend-lead" {
		t.Fatalf("expected frontend-lead via CanHandle fallback, got %s", agent.Role)
	}
}
