package domain

// SecretKey is a raw 32-byte secp256k1 secret scalar.
type SecretKey [32]byte

// Slice returns the key as a []byte.
func (k SecretKey) Slice() []byte { return k[:] }

// PublicKey is a 33-byte compressed secp256k1 point.
type PublicKey [33]byte

// Slice returns the key as a []byte.
func (p PublicKey) Slice() []byte { return p[:] }

// HubKey is the 32-byte symmetric key shared by all members of one hub.
type HubKey [32]byte

// Slice returns the key as a []byte.
func (k HubKey) Slice() []byte { return k[:] }

// HubID identifies one hub (a single crisis-line deployment).
type HubID string

// String returns the string form of the hub identifier.
func (id HubID) String() string { return string(id) }

// TopicID identifies a pub/sub topic within a hub.
type TopicID string

// String returns the string form of the topic identifier.
func (id TopicID) String() string { return string(id) }

// SubscriptionID identifies a registered subscription.
type SubscriptionID string

// String returns the string form of the subscription identifier.
func (id SubscriptionID) String() string { return string(id) }
