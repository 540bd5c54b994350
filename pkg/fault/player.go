package fault

import (
	"errors"
	"fmt"
	"strings"
)

//Player tells whose shot is being judged
type Player int

const (
	//BottomPlayer is filmed at the bottom of the frame, a good shot lands in the north half
	BottomPlayer Player = iota + 1
	//TopPlayer is filmed at the top of the frame, a good shot lands in the south half
	TopPlayer
	//All ignores sides, any landing inside the singles court is good
	All
)

var playerNames = map[Player]string{
	BottomPlayer: "bottom_player",
	TopPlayer:    "top_player",
	All:          "all",
}

//ErrInvalidPlayer is matched by every error caused by an unknown player
var ErrInvalidPlayer = errors.New("invalid player")

//PlayerError carries the rejected player value
type PlayerError struct {
	Value string
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("%v '%s', expected one of bottom_player, top_player, all", ErrInvalidPlayer, e.Value)
}

func (e *PlayerError) Is(target error) bool {
	return target == ErrInvalidPlayer
}

//ParsePlayer maps a player tag to a Player. Tags are matched case-insensitively.
func ParsePlayer(s string) (Player, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for p, name := range playerNames {
		if name == tag {
			return p, nil
		}
	}
	return 0, &PlayerError{Value: s}
}

func (p Player) Valid() bool {
	_, ok := playerNames[p]
	return ok
}

func (p Player) String() string {
	if name, ok := playerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Player(%d)", int(p))
}

func (p Player) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, &PlayerError{Value: p.String()}
	}
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
