package domain

// RosterEntry maps an account handle to its resolved numeric id.
// Order in the roster is significant: correlation tables use it as the
// stable tie-break.
type RosterEntry struct {
	Handle    string
	AccountID string
}

// DefaultRoster is the fixed set of tracked accounts.
var DefaultRoster = []RosterEntry{
	{Handle: "BitcoinMagazine", AccountID: "361289499"},
	{Handle: "DocumentingBTC", AccountID: "1337780902680809474"},
	{Handle: "BitcoinFear", AccountID: "1151046460688887808"},
	{Handle: "BTC_Archive", AccountID: "970994516357472257"},
	{Handle: "Bitcoin", AccountID: "357312062"},
	{Handle: "BT", AccountID: "432093"},
	{Handle: "TheCryptoLark", AccountID: "30325257"},
	{Handle: "MartiniGuyYT", AccountID: "782946231551131648"},
	{Handle: "Sheldon_Sniper", AccountID: "1374629644884971521"},
	{Handle: "binance", AccountID: "877807935493033984"},
	{Handle: "CoinDesk", AccountID: "1333467482"},
	{Handle: "cz_binance", AccountID: "902926941413453824"},
}
