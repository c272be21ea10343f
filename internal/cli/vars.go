package cli

import (
	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/internal/observability"
	"github.com/valter-silva-au/agent-session/internal/render"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	SessionDir string
	Config     *models.EngineConfig

	Engine   core.SessionEngine
	Renderer render.PlanRenderer
	EventLog observability.EventLog
)
