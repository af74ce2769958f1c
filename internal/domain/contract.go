package domain

// Contract is a static tradable FFA contract definition with per-trade
// lot limits.
type Contract struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	MinVolume   int64  `json:"min_volume"`
	MaxVolume   int64  `json:"max_volume"`
}

// The known contract table. Route codes follow the Baltic Exchange
// timecharter averages and voyage routes.
var contracts = map[string]Contract{
	"C5TC":  {Code: "C5TC", Description: "Capesize 5TC average", MinVolume: 1, MaxVolume: 1000},
	"P4TC":  {Code: "P4TC", Description: "Panamax 4TC average", MinVolume: 1, MaxVolume: 1000},
	"P5TC":  {Code: "P5TC", Description: "Panamax 5TC average", MinVolume: 1, MaxVolume: 1000},
	"S10TC": {Code: "S10TC", Description: "Supramax 10TC average", MinVolume: 1, MaxVolume: 1000},
	"HS7TC": {Code: "HS7TC", Description: "Handysize 7TC average", MinVolume: 1, MaxVolume: 1000},
	"C3":    {Code: "C3", Description: "Tubarao-Qingdao iron ore", MinVolume: 1, MaxVolume: 500},
	"C5":    {Code: "C5", Description: "West Australia-Qingdao iron ore", MinVolume: 1, MaxVolume: 500},
	"C7":    {Code: "C7", Description: "Bolivar-Rotterdam coal", MinVolume: 1, MaxVolume: 500},
}

// LookupContract returns the contract definition for a route code.
func LookupContract(code string) (Contract, bool) {
	c, ok := contracts[code]
	return c, ok
}

// ListContracts returns the full contract table.
func ListContracts() []Contract {
	out := make([]Contract, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, c)
	}
	return out
}
