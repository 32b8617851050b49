package repositories

import (
	"outpost/internal/db"
)

type Repositories struct {
	Users        *UserRepo
	Teams        *TeamRepo
	Agents       *AgentRepo
	MCPToolCalls *MCPToolCallRepo
}

func New(database db.Database) *Repositories {
	conn := database.Conn()

	teams := NewTeamRepo(conn)

	return &Repositories{
		Users:        NewUserRepo(conn),
		Teams:        teams,
		Agents:       NewAgentRepo(conn),
		MCPToolCalls: NewMCPToolCallRepo(conn, teams),
	}
}
