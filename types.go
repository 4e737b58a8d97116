package chiawallet

// Coin is a coin on the wire, as the explorer and custody APIs represent it
type Coin struct {
	ParentCoinInfo string `json:"parent_coin_info"`
	PuzzleHash     string `json:"puzzle_hash"`
	Amount         uint64 `json:"amount"`
}

// CoinRecord is an explorer coin record with chain state attached
type CoinRecord struct {
	Coin                Coin   `json:"coin"`
	ConfirmedBlockIndex uint32 `json:"confirmed_block_index"`
	SpentBlockIndex     uint32 `json:"spent_block_index"`
	Spent               bool   `json:"spent"`
	Coinbase            bool   `json:"coinbase"`
	Timestamp           uint64 `json:"timestamp"`
}

// CoinSpend is a spent coin with its puzzle reveal and solution
type CoinSpend struct {
	Coin         Coin   `json:"coin"`
	PuzzleReveal string `json:"puzzle_reveal"`
	Solution     string `json:"solution"`
}

// SpendBundle is a signed transaction artifact consuming one or more coins
type SpendBundle struct {
	CoinSpends          []CoinSpend `json:"coin_spends"`
	AggregatedSignature string      `json:"aggregated_signature"`
}

// Payment is a single payment output of a spend
type Payment struct {
	PuzzleHash string   `json:"puzzle_hash"`
	Amount     uint64   `json:"amount"`
	Memos      []string `json:"memos,omitempty"`
}

// SpendRequest asks the custody backend to build and sign a spend bundle
// from already-selected coins
type SpendRequest struct {
	WalletID string    `json:"wallet_id"`
	Coins    []Coin    `json:"coins"`
	Payments []Payment `json:"payments"`
	Fee      uint64    `json:"fee"`
}

// UnsignedOffer asks the custody backend to create and sign an offer file
type UnsignedOffer struct {
	WalletID          string    `json:"wallet_id"`
	OfferedCoins      []Coin    `json:"offered_coins"`
	RequestedPayments []Payment `json:"requested_payments"`
	Fee               uint64    `json:"fee"`
}

// Balance is an address balance snapshot from the explorer, in mojos
type Balance struct {
	Address          string `json:"address"`
	ConfirmedBalance uint64 `json:"confirmed_balance"`
	SpendableBalance uint64 `json:"spendable_balance"`
	CoinCount        int    `json:"coin_count"`
}

// NFT is an owned NFT as listed by the explorer
type NFT struct {
	LauncherID   string `json:"launcher_id"`
	NFTID        string `json:"nft_id"`
	OwnerAddress string `json:"owner_address"`
	MetadataURI  string `json:"metadata_uri"`
	DataURI      string `json:"data_uri"`
	RoyaltyBasis uint16 `json:"royalty_percentage"`
	EditionNum   uint64 `json:"edition_number"`
	EditionTotal uint64 `json:"edition_total"`
}

// NFTAttribute is a single trait in NFT metadata
type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTMetadata is the off-chain metadata document of an NFT
type NFTMetadata struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	CollectionName string         `json:"collection_name,omitempty"`
	ImageURI       string         `json:"image_uri,omitempty"`
	Attributes     []NFTAttribute `json:"attributes,omitempty"`
}

// TransactionRecord is one entry of an address's transaction history
type TransactionRecord struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Amount      uint64 `json:"amount"`
	Fee         uint64 `json:"fee"`
	ToAddress   string `json:"to_address"`
	FromAddress string `json:"from_address"`
	Confirmed   bool   `json:"confirmed"`
	Height      uint32 `json:"height"`
	Timestamp   uint64 `json:"timestamp"`
}
