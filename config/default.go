package config

// DefaultVars are not part of the config, they are referenced from it
// to avoid repetition in config files
const DefaultVars = `
PathRWData = "/tmp/chainsync"
Testnet = false
`

// DefaultValues is the default configuration
const DefaultValues = `
# This is the default configuration for chainsync

# Log configuration
[Log]
  # Environment is the environment where the node is running
  Environment = "development" # "production" or "development"
  # Level is the log level
  Level = "info"
  # Outputs are the outputs where the logs will be written
  Outputs = ["stderr"]

# Common configuration
[Common]
  # Testnet selects the test networks: default sources and chain ids
  Testnet = {{Testnet}}
  # PathRWData is the folder of the databases
  PathRWData = "{{PathRWData}}"
  # ShutdownTimeout is the time given to the components to stop
  ShutdownTimeout = "10s"

# SyncSources configuration
[SyncSources]
  # DBPath is the path of the database holding the selected and custom sources
  DBPath = "{{PathRWData}}/syncsources.sqlite"
  # CustomSourcesFile is an optional YAML file with custom sources loaded at startup
  CustomSourcesFile = ""
  # Keys of the providers used by the default sources
  [SyncSources.Keys]
    InfuraProjectID = ""
    InfuraProjectSecret = ""
    EtherscanAPIKey = ""
    BscscanAPIKey = ""
    PolygonscanAPIKey = ""
    SnowtraceAPIKey = ""
    OptimisticEtherscanAPIKey = ""
    ArbiscanAPIKey = ""

# Engine configuration
[Engine]
  # DataDir holds a folder per blockchain with its databases
  DataDir = "{{PathRWData}}/chains"
  # Testnet rejects endpoints that don't report the testnet chain id
  Testnet = {{Testnet}}
  # RestartBackoffMin is the wait after the first failure of a chain, doubled on every failure in a row
  RestartBackoffMin = "1s"
  # RestartBackoffMax caps the wait between failures
  RestartBackoffMax = "5m"
  # Chains are the blockchains to sync. Example:
  # [[Engine.Chains]]
  #   Blockchain = "ethereum"
  #   Accounts = ["0x..."]
  #   Tokens = []
  #   InitialBlockNum = 0
  #   BlockFinality = "LatestBlock"
  Chains = []

  [Engine.SourcePool]
    # MaxConsecutiveFailures is the amount of errors in a row that marks an endpoint as down
    MaxConsecutiveFailures = 3
    # BaseCooldown is the first time an endpoint stays down, doubled on every new down
    BaseCooldown = "5s"
    # MaxCooldown caps the cooldown of an endpoint
    MaxCooldown = "5m"
    # ThrottleCooldown is the time an endpoint is skipped after a rate limit response
    ThrottleCooldown = "10s"
    # HealthCheckInterval is the period of the probe of every endpoint
    HealthCheckInterval = "15s"
    # MaxHeadLag is the amount of blocks an endpoint can be behind before being deprioritized
    MaxHeadLag = 10
    # LatencyEWMAAlpha is the weight of the last sample on the latency average
    LatencyEWMAAlpha = 0.3
    # RequestsPerSecond limits the requests sent to each endpoint. 0 means unlimited
    RequestsPerSecond = 0
    # Burst is the bucket size of the per endpoint rate limiter
    Burst = 10
    # RequestTimeout bounds every single request
    RequestTimeout = "20s"
    # FailoverToOtherSources allows the sync to use the endpoints of the sources not selected
    FailoverToOtherSources = false

  [Engine.ReorgDetector]
    # CheckReorgsInterval is the period of the check of the tracked blocks
    CheckReorgsInterval = "2s"
    # FinalityDepth is used to derive the finalized block on nodes without the finalized tag
    FinalityDepth = 64

  [Engine.WalletSync]
    # BlockFinality is the block tag followed: LatestBlock, SafeBlock, FinalizedBlock
    BlockFinality = "LatestBlock"
    # SyncBlockChunkSize is the amount of blocks whose logs are requested at once
    SyncBlockChunkSize = 1000
    RetryAfterErrorPeriod = "1s"
    # MaxRetryAttemptsAfterError is the amount of attempts before a round fails. 0 retries forever
    MaxRetryAttemptsAfterError = 10
    WaitForNewBlocksPeriod = "3s"
    DownloadBufferSize = 100
    # HistoryInterval is the period of the explorer backfill
    HistoryInterval = "1m"
    # HistoryBlockRange is the block range requested at once to the explorer
    HistoryBlockRange = 100000

  [Engine.Explorer]
    # RequestsPerSecond is the rate allowed by the explorer for an API key
    RequestsPerSecond = 4
    # CacheTTL is the time the explorer responses are reused
    CacheTTL = "30s"
    RequestTimeout = "10s"
    # PageSize is the amount of transactions requested per page
    PageSize = 1000

[RPC]
  # Host defines the network adapter that will be used to serve the HTTP requests
  Host = "0.0.0.0"
  # Port defines the port to serve the endpoints via HTTP
  Port = 5576
  # ReadTimeout is the HTTP server read timeout
  # check net/http.server.ReadTimeout and net/http.server.ReadHeaderTimeout
  ReadTimeout = "2s"
  # WriteTimeout is the HTTP server write timeout
  # check net/http.server.WriteTimeout
  WriteTimeout = "2s"
  # MaxRequestsPerIPAndSecond defines how much requests a single IP can
  # send within a single second
  MaxRequestsPerIPAndSecond = 10

[Metrics]
  # Enabled serves the prometheus metrics
  Enabled = false
  Host = "0.0.0.0"
  Port = 9091
`
