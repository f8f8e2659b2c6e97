package rakserver

import "github.com/sandertv/gophertunnel/minecraft"

// StatusProvider reports a fixed server name and sub name, with the player counts passed by the server.
type StatusProvider struct {
	serverName    string
	serverSubName string
}

func NewStatusProvider(serverName string, serverSubName string) *StatusProvider {
	return &StatusProvider{serverName: serverName, serverSubName: serverSubName}
}

func (s *StatusProvider) ServerStatus(playerCount int, maxPlayers int) minecraft.ServerStatus {
	return minecraft.ServerStatus{
		ServerName:    s.serverName,
		ServerSubName: s.serverSubName,
		PlayerCount:   playerCount,
		MaxPlayers:    maxPlayers,
	}
}
