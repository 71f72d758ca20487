package calculator

// Auction yard locations the calculator vocabulary recognizes, with the
// total transport distance (US inland leg + ocean leg) to each supported
// destination port. Distances are the same figures the shared calculator
// uses, so formula-priced quotes stay comparable with API-priced ones.

// auctionYard is one recognized origin location.
type auctionYard struct {
	City      string
	State     string
	Aliases   []string
	PortMiles map[string]float64
}

const (
	// PortPoti is the primary Black Sea destination port.
	PortPoti = "POTI"
	// PortBatumi is the secondary destination port.
	PortBatumi = "BATUMI"
)

// distanceTo returns the transport distance in miles to the given
// destination port, or 0 when the port is unknown.
func (y *auctionYard) distanceTo(port string) float64 {
	return y.PortMiles[port]
}

var auctionYards = []auctionYard{
	{City: "Los Angeles", State: "CA", Aliases: []string{"north hollywood", "van nuys", "long beach"},
		PortMiles: map[string]float64{PortPoti: 7310, PortBatumi: 7290}},
	{City: "San Diego", State: "CA",
		PortMiles: map[string]float64{PortPoti: 7390, PortBatumi: 7370}},
	{City: "Sacramento", State: "CA", Aliases: []string{"rancho cordova"},
		PortMiles: map[string]float64{PortPoti: 7480, PortBatumi: 7460}},
	{City: "Phoenix", State: "AZ",
		PortMiles: map[string]float64{PortPoti: 7150, PortBatumi: 7130}},
	{City: "Las Vegas", State: "NV",
		PortMiles: map[string]float64{PortPoti: 7260, PortBatumi: 7240}},
	{City: "Seattle", State: "WA",
		PortMiles: map[string]float64{PortPoti: 7620, PortBatumi: 7600}},
	{City: "Portland", State: "OR",
		PortMiles: map[string]float64{PortPoti: 7560, PortBatumi: 7540}},
	{City: "Denver", State: "CO",
		PortMiles: map[string]float64{PortPoti: 6830, PortBatumi: 6810}},
	{City: "Dallas", State: "TX", Aliases: []string{"fort worth", "grand prairie"},
		PortMiles: map[string]float64{PortPoti: 6680, PortBatumi: 6660}},
	{City: "Houston", State: "TX",
		PortMiles: map[string]float64{PortPoti: 6590, PortBatumi: 6570}},
	{City: "San Antonio", State: "TX",
		PortMiles: map[string]float64{PortPoti: 6650, PortBatumi: 6630}},
	{City: "Chicago", State: "IL",
		PortMiles: map[string]float64{PortPoti: 6240, PortBatumi: 6220}},
	{City: "Detroit", State: "MI", Aliases: []string{"woodhaven"},
		PortMiles: map[string]float64{PortPoti: 6160, PortBatumi: 6140}},
	{City: "Minneapolis", State: "MN", Aliases: []string{"st paul", "saint paul"},
		PortMiles: map[string]float64{PortPoti: 6390, PortBatumi: 6370}},
	{City: "Atlanta", State: "GA",
		PortMiles: map[string]float64{PortPoti: 5980, PortBatumi: 5960}},
	{City: "Savannah", State: "GA",
		PortMiles: map[string]float64{PortPoti: 5840, PortBatumi: 5820}},
	{City: "Charlotte", State: "NC", Aliases: []string{"concord"},
		PortMiles: map[string]float64{PortPoti: 5920, PortBatumi: 5900}},
	{City: "Miami", State: "FL", Aliases: []string{"opa locka", "medley"},
		PortMiles: map[string]float64{PortPoti: 6050, PortBatumi: 6030}},
	{City: "Orlando", State: "FL",
		PortMiles: map[string]float64{PortPoti: 6010, PortBatumi: 5990}},
	{City: "Tampa", State: "FL",
		PortMiles: map[string]float64{PortPoti: 6040, PortBatumi: 6020}},
	{City: "Newark", State: "NJ", Aliases: []string{"elizabeth", "port newark"},
		PortMiles: map[string]float64{PortPoti: 5590, PortBatumi: 5570}},
	{City: "Baltimore", State: "MD",
		PortMiles: map[string]float64{PortPoti: 5640, PortBatumi: 5620}},
	{City: "Boston", State: "MA", Aliases: []string{"north billerica"},
		PortMiles: map[string]float64{PortPoti: 5520, PortBatumi: 5500}},
	{City: "Philadelphia", State: "PA",
		PortMiles: map[string]float64{PortPoti: 5610, PortBatumi: 5590}},
	{City: "Nashville", State: "TN",
		PortMiles: map[string]float64{PortPoti: 6090, PortBatumi: 6070}},
}
