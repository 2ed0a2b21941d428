package ledger

// TEAL sources for the auction application. The creation call supplies the
// seller address, asset index, start/end times, reserve price and the asset
// holding buffer as application arguments.

// AuctionApprovalProgram validates bids against the stored reserve price and
// current high bid, and releases the asset to the winner on close.
const AuctionApprovalProgram = `#pragma version 5
txn ApplicationID
int 0
==
bnz handle_create
txn OnCompletion
int NoOp
==
bnz handle_bid
txn OnCompletion
int DeleteApplication
==
bnz handle_close
err
handle_create:
byte "seller"
txna ApplicationArgs 0
app_global_put
byte "asset"
txna ApplicationArgs 1
btoi
app_global_put
byte "start"
txna ApplicationArgs 2
btoi
app_global_put
byte "end"
txna ApplicationArgs 3
btoi
app_global_put
byte "reserve"
txna ApplicationArgs 4
btoi
app_global_put
byte "buffer"
txna ApplicationArgs 5
btoi
app_global_put
int 1
return
handle_bid:
global LatestTimestamp
byte "start"
app_global_get
>=
global LatestTimestamp
byte "end"
app_global_get
<=
&&
gtxn 1 Amount
byte "reserve"
app_global_get
>=
&&
gtxn 1 Amount
byte "high"
app_global_get
>
&&
bz reject
byte "high"
gtxn 1 Amount
app_global_put
byte "bidder"
gtxn 1 Sender
app_global_put
int 1
return
handle_close:
global LatestTimestamp
byte "end"
app_global_get
>
txn Sender
byte "seller"
app_global_get
==
&&
return
reject:
int 0
return
`

// AuctionClearStateProgram always approves clear-state calls
const AuctionClearStateProgram = `#pragma version 5
int 1
return
`
