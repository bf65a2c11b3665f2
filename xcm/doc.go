/*
Package xcm models the subset of Cross-Consensus Messaging needed to drive remote execution
through derived accounts: relative multilocations, concrete fungible assets, the instructions of a
withdraw / buy-execution / transact / refund / deposit program, and the derivation of the account
a destination chain assigns to a remote origin.

# Versions

The same logical value encodes differently depending on the XCM version the receiving pallet
expects. Values in this package are version neutral; the version is chosen when a value is wrapped
for the wire:

	loc := xcm.MultiLocation{Parents: 1, Interior: []xcm.Junction{xcm.Parachain(2114)}}
	b, err := xcm.EncodeLocation(xcm.V3, loc)

V1 and V2 share the multilocation layout (network ids are mandatory, GeneralKey is a byte vector).
V3 makes the network optional and bounds GeneralKey to 32 bytes. Messages can only be built as V2
or V3; V1 predates the instruction list format.

# Derived accounts

DeriveAccount reproduces the runtime's HashedDescription converter for a
{parents: 1, interior: X2(Parachain, AccountId32|AccountKey20)} origin:

	blake2_256(0x20 ++ "multiloc" ++ SCALE(location))
*/
package xcm
