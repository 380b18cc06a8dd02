package main

type GameSettings struct {
	BoardSize int `json:"board_size"`
	Lookback  int `json:"lookback"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		BoardSize: 9,
		Lookback:  3,
	}
}
